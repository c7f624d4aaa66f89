package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"product_registration_bot/internal/app"
	"product_registration_bot/internal/domain/retry"
)

const (
	msgLookupUsage       = "사용법: /check <이름> <연락처>\n예) /check 홍길동 010-1234-5678"
	msgLookupNotFound    = "등록된 제품이 없습니다. 이름과 연락처를 확인해주세요."
	msgLookupUnavailable = "조회 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
	msgPromoExpired      = "조회 결과가 만료되었습니다. /check 로 다시 조회해주세요."
	msgPromoLink         = "아래 버튼을 눌러 혜택 페이지로 이동하세요."
)

// LookupHandlers answers registration lookups. The last result of each chat is
// kept so a promo button press can be logged against its record.
type LookupHandlers struct {
	lookup  *app.LookupService
	results *gocache.Cache // chat ID -> []app.Card
	logger  *logrus.Entry
}

func NewLookupHandlers(lookup *app.LookupService, resultTTL time.Duration, baseLogger *logrus.Entry) *LookupHandlers {
	return &LookupHandlers{
		lookup:  lookup,
		results: gocache.New(resultTTL, resultTTL),
		logger:  baseLogger.WithField("handler_group", "lookup"),
	}
}

func (h *LookupHandlers) Register(ctx context.Context, b *telebot.Bot) {
	b.Handle("/check", func(c telebot.Context) error { return h.check(ctx, c) })
	b.Handle(&btnPromo, func(c telebot.Context) error { return h.promo(ctx, c) })
}

// parseLookupArgs splits "/check" arguments into a name and a phone number.
// The name may contain spaces; the last argument is the phone number.
func parseLookupArgs(args []string) (name, phone string, ok bool) {
	if len(args) < 2 {
		return "", "", false
	}
	name = strings.Join(args[:len(args)-1], " ")
	phone = app.FormatPhone(args[len(args)-1])
	return name, phone, name != "" && phone != ""
}

func (h *LookupHandlers) check(ctx context.Context, c telebot.Context) error {
	name, phone, ok := parseLookupArgs(c.Args())
	if !ok {
		return c.Send(msgLookupUsage)
	}
	logCtx := h.logger.WithField("chat_id", c.Chat().ID)

	waiting, err := c.Bot().Send(c.Recipient(), "조회 중...")
	if err != nil {
		return err
	}
	rc := retry.NewContext(func(n retry.Notice) {
		if _, err := c.Bot().Edit(waiting, n.Text()); err != nil {
			logCtx.WithError(err).Debug("Failed to update waiting message")
		}
	})

	cards, err := h.lookup.Search(ctx, name, phone, rc)
	switch {
	case errors.Is(err, app.ErrNoRegistrations):
		_, err = c.Bot().Edit(waiting, msgLookupNotFound)
		return err
	case err != nil:
		if ve, ok := app.AsValidation(err); ok {
			_, err = c.Bot().Edit(waiting, ve.Message)
			return err
		}
		logCtx.WithError(err).Warn("Lookup failed")
		_, err = c.Bot().Edit(waiting, msgLookupUnavailable)
		return err
	}

	h.results.SetDefault(chatKey(c.Chat().ID), cards)
	_ = c.Bot().Delete(waiting)
	for i, card := range cards {
		var opts []interface{}
		if card.Offer != nil {
			opts = append(opts, promoMarkup(i))
		}
		if err := c.Send(cardText(card), opts...); err != nil {
			return err
		}
	}
	return nil
}

func (h *LookupHandlers) promo(ctx context.Context, c telebot.Context) error {
	v, found := h.results.Get(chatKey(c.Chat().ID))
	args := c.Args()
	if !found || len(args) == 0 {
		return c.Respond(&telebot.CallbackResponse{Text: msgPromoExpired, ShowAlert: true})
	}
	cards := v.([]app.Card)
	i, ok := parseIndex(args[0], len(cards))
	if !ok {
		return c.Respond(&telebot.CallbackResponse{Text: msgPromoExpired, ShowAlert: true})
	}

	link := h.lookup.FollowPromo(ctx, cards[i])
	_ = c.Respond()
	if !isAbsoluteURL(link) {
		return c.Send(link)
	}
	return c.Send(msgPromoLink, linkMarkup("혜택 보러가기", link))
}
