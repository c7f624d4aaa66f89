package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"product_registration_bot/internal/app"
	"product_registration_bot/internal/domain/retry"
	"product_registration_bot/internal/infra/config"
	"product_registration_bot/internal/infra/logger"
)

var (
	lookupName  string
	lookupPhone string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Look up registrations and warranty coverage by name and phone",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("could not load application configuration: %w", err)
		}
		logger.Init(cfg)

		policy, err := config.LoadWarrantyPolicy(cfg.WarrantyPolicyFile, cfg.PromoHeadOfficeLink)
		if err != nil {
			return err
		}
		api, err := newRegistryAPI(cfg)
		if err != nil {
			return err
		}
		lookup := app.NewLookupService(api, policy, logger.Component("lookup"))

		out := cmd.OutOrStdout()
		rc := retry.NewContext(func(n retry.Notice) {
			fmt.Fprintln(cmd.ErrOrStderr(), n.Text())
		})
		cards, err := lookup.Search(cmd.Context(), lookupName, app.FormatPhone(lookupPhone), rc)
		if errors.Is(err, app.ErrNoRegistrations) {
			fmt.Fprintln(out, "등록된 제품이 없습니다.")
			return nil
		}
		if err != nil {
			return err
		}

		for _, card := range cards {
			fmt.Fprintf(out, "[%d/%d] %s  %s  %s\n", card.Index, card.Total, card.Record.Product, card.Record.Serial, card.DateText)
			fmt.Fprintf(out, "    %s년형  프레임 %s / 모터 %s / 컨트롤러 %s\n", card.Year, card.Terms.Frame, card.Terms.Motor, card.Terms.Controller)
			if card.Offer != nil {
				fmt.Fprintf(out, "    혜택 %d일 남음: %s\n", card.Offer.DaysLeft, card.Offer.Link)
			}
		}
		return nil
	},
}

func init() {
	lookupCmd.Flags().StringVar(&lookupName, "name", "", "registrant name")
	lookupCmd.Flags().StringVar(&lookupPhone, "phone", "", "registrant phone number")
	_ = lookupCmd.MarkFlagRequired("name")
	_ = lookupCmd.MarkFlagRequired("phone")
}
