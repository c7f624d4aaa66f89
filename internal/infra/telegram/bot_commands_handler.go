// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"product_registration_bot/internal/app"
)

func helpText(operator bool) string {
	var help strings.Builder
	help.WriteString("사용 가능한 명령어:\n\n")
	help.WriteString("/register - 정품 등록 시작\n")
	help.WriteString("/check <이름> <연락처> - 등록 내역 및 보증 기간 조회\n")
	help.WriteString("/cancel - 진행 중인 등록 취소\n")
	help.WriteString("/help - 이 도움말 보기")
	if operator {
		help.WriteString("\n\n운영자 명령어:\n\n")
		help.WriteString("/journal <차대번호> - 등록 처리 기록 조회\n")
		help.WriteString("/refresh_catalog - 모델 및 매장 목록 새로고침")
	}
	return help.String()
}

func RegisterBotCommands(
	b *telebot.Bot,
	operators *app.OperatorService,
	baseLogger *logrus.Entry, // For contextual logging
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		if operators.IsOperator(senderID) {
			logCtx.Info("User identified as operator")
		}
		return c.Send("안녕하세요! 정품 등록 도우미입니다.\n/register 로 제품을 등록하거나 /check 로 등록 내역을 조회할 수 있습니다.\n\n" + helpText(operators.IsOperator(senderID)))
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID).Info("Processing /help command")
		return c.Send(helpText(operators.IsOperator(senderID)))
	})
}
