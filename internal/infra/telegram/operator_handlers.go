package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"product_registration_bot/internal/app"
	idb "product_registration_bot/internal/infra/database"
)

const msgNotAuthorized = "오류: 이 명령을 실행할 권한이 없습니다."

// RegisterOperatorHandlers registers handlers for operator commands.
func RegisterOperatorHandlers(ctx context.Context, b *telebot.Bot, operators *app.OperatorService, baseLogger *logrus.Entry) {
	b.Handle("/journal", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/journal",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		args := c.Args()
		if len(args) != 1 {
			if !operators.IsOperator(c.Sender().ID) {
				return c.Send(msgNotAuthorized)
			}
			return c.Send("잘못된 형식입니다. 사용법: /journal <차대번호>")
		}
		serial := strings.TrimSpace(args[0])
		handlerLogger = handlerLogger.WithField("serial", serial)

		entries, err := operators.ListJournal(ctx, c.Sender().ID, serial)
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			switch {
			case errors.Is(err, app.ErrAdminNotAuthorized):
				logWithError.Warn("Unauthorized access attempt")
				return c.Send(msgNotAuthorized)
			case errors.Is(err, app.ErrJournalNotAvailable):
				logWithError.Warn("Journal requested but not configured")
				return c.Send("등록 기록 저장소가 설정되지 않았습니다.")
			case errors.Is(err, idb.ErrJournalNotMigrated):
				logWithError.Error("Journal table missing")
				return c.Send("등록 기록 테이블이 없습니다. migrate 명령을 먼저 실행해주세요.")
			default:
				logWithError.Error("Failed to list journal")
				return c.Send(fmt.Sprintf("기록 조회 중 오류가 발생했습니다: %s", err.Error()))
			}
		}

		handlerLogger.WithField("entries_count", len(entries)).Info("Successfully retrieved journal")
		return c.Send(journalText(serial, entries))
	})

	b.Handle("/refresh_catalog", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/refresh_catalog",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		cat, err := operators.RefreshCatalog(ctx, c.Sender().ID)
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			if errors.Is(err, app.ErrAdminNotAuthorized) {
				logWithError.Warn("Unauthorized access attempt")
				return c.Send(msgNotAuthorized)
			}
			logWithError.Error("Failed to refresh catalog")
			return c.Send(fmt.Sprintf("목록을 새로고침하지 못했습니다: %s", err.Error()))
		}
		return c.Send(fmt.Sprintf("목록을 새로고침했습니다. 모델 %d개, 매장 %d곳.", len(cat.Products), len(cat.Stores)))
	})
}
