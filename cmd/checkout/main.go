package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Raymond9734/campaign-checkout/internal/checkout"
	"github.com/Raymond9734/campaign-checkout/internal/client"
	"github.com/Raymond9734/campaign-checkout/internal/config"
	"github.com/Raymond9734/campaign-checkout/internal/models"
	"github.com/Raymond9734/campaign-checkout/internal/validation"
)

const sendTimeLayout = "2006-01-02 15:04"

func main() {
	rootCmd := &cobra.Command{
		Use:           "checkout",
		Short:         "create paid promotional campaigns against the checkout API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		recipientsCommand(),
		runCommand(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newClient() (*client.Client, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := config.NewLogger(cfg.Log, os.Stderr)
	return client.New(cfg.Checkout.APIURL, cfg.Checkout.Timeout, logger), logger, nil
}

func recipientsCommand() *cobra.Command {
	var (
		page        int
		search      string
		desc        bool
		blacklisted bool
	)

	cmd := &cobra.Command{
		Use:   "recipients",
		Short: "list one page of the recipient directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := newClient()
			if err != nil {
				return err
			}

			query := models.DirectoryQuery{
				Page:               page,
				PageSize:           models.DirectoryPageSize,
				SortOrder:          models.SortAsc,
				ExcludeBlacklisted: !blacklisted,
				SearchTerm:         search,
			}
			if desc {
				query.SortOrder = models.SortDesc
			}

			result, err := api.Search(cmd.Context(), query)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range result.Items {
				printRecipient(out, r)
			}
			fmt.Fprintf(out, "page %d of %d, %d recipients\n",
				page+1, models.TotalPages(result.TotalCount, models.DirectoryPageSize), result.TotalCount)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "zero-based page index")
	cmd.Flags().StringVar(&search, "search", "", "filter by name or email")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort by name descending")
	cmd.Flags().BoolVar(&blacklisted, "include-blacklisted", false, "include blacklisted recipients")
	return cmd
}

type runOptions struct {
	all          bool
	recipientIDs []int64
	name         string
	code         string
	message      string
	sendAt       string
	card         models.Card
}

func runCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "select recipients, enter campaign details, pay and commit",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, logger, err := newClient()
			if err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), api, logger, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.all, "all", false, "select every recipient in the directory")
	cmd.Flags().Int64SliceVar(&opts.recipientIDs, "recipient", nil, "recipient id to select (repeatable)")
	cmd.Flags().StringVar(&opts.name, "name", "", "campaign name")
	cmd.Flags().StringVar(&opts.code, "code", "", "promotion code")
	cmd.Flags().StringVar(&opts.message, "message", "", "promotion message")
	cmd.Flags().StringVar(&opts.sendAt, "send-at", "", "message send time, "+sendTimeLayout+" local time")
	cmd.Flags().StringVar(&opts.card.Number, "card-number", "", "card number")
	cmd.Flags().IntVar(&opts.card.ExpMonth, "exp-month", 0, "card expiry month")
	cmd.Flags().IntVar(&opts.card.ExpYear, "exp-year", 0, "card expiry year")
	cmd.Flags().StringVar(&opts.card.CVC, "cvc", "", "card security code")
	_ = cmd.MarkFlagRequired("card-number")
	return cmd
}

func run(ctx context.Context, out io.Writer, api *client.Client, logger *slog.Logger, opts runOptions) error {
	selector := checkout.NewSelector(api, logger)
	orchestrator := checkout.NewOrchestrator(api, api, api, api, logger)
	wizard := checkout.NewWizard(selector, orchestrator, logger)

	if err := selectRecipients(ctx, selector, opts); err != nil {
		_ = wizard.Cancel()
		return err
	}
	fmt.Fprintf(out, "%d recipients selected\n", selector.Count())

	if err := wizard.Next(); err != nil {
		_ = wizard.Cancel()
		return err
	}

	fields := map[validation.Field]string{
		validation.FieldCampaignName:     opts.name,
		validation.FieldPromotionCode:    opts.code,
		validation.FieldPromotionMessage: opts.message,
	}
	for field, value := range fields {
		if err := wizard.SetField(field, value); err != nil {
			return err
		}
	}
	if opts.sendAt != "" {
		sendAt, err := time.ParseInLocation(sendTimeLayout, opts.sendAt, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --send-at: %w", err)
		}
		if err := wizard.SetSendTime(sendAt); err != nil {
			return err
		}
	}

	pending, err := wizard.Submit(ctx)
	var fieldErrs validation.Errors
	switch {
	case errors.As(err, &fieldErrs):
		printFieldErrors(out, fieldErrs)
		_ = wizard.Cancel()
		return errors.New("campaign details are invalid")
	case err != nil:
		fmt.Fprintln(out, checkout.UserMessage(err))
		_ = wizard.Cancel()
		return err
	}

	fmt.Fprintf(out, "total %s for %d recipients (%s each)\n",
		pending.Quote.TotalCost.StringFixed(2),
		pending.Quote.RecipientCount,
		pending.Quote.UnitPrice.StringFixed(2),
	)

	receipt, err := wizard.Confirm(ctx, opts.card)
	if err != nil {
		fmt.Fprintln(out, checkout.UserMessage(err))
		var decline *checkout.PaymentDeclineError
		if errors.As(err, &decline) {
			_ = wizard.Cancel()
		}
		return err
	}

	fmt.Fprintf(out, "campaign committed, confirmation %s\n", receipt.ConfirmationID)
	return nil
}

func selectRecipients(ctx context.Context, selector *checkout.Selector, opts runOptions) error {
	if opts.all {
		_, err := selector.AddAll(ctx)
		return err
	}

	wanted := make(map[int64]struct{}, len(opts.recipientIDs))
	for _, id := range opts.recipientIDs {
		wanted[id] = struct{}{}
	}

	for page := 0; len(wanted) > 0; page++ {
		if err := selector.LoadAvailable(ctx, page, ""); err != nil {
			return err
		}
		view := selector.AvailableView()
		for _, r := range view.Items {
			if _, ok := wanted[r.ID]; ok {
				selector.Add(r)
				delete(wanted, r.ID)
			}
		}
		if page+1 >= view.TotalPages {
			break
		}
	}

	if len(wanted) > 0 {
		missing := make([]string, 0, len(wanted))
		for id := range wanted {
			missing = append(missing, fmt.Sprint(id))
		}
		sort.Strings(missing)
		return fmt.Errorf("recipients not found in directory: %s", strings.Join(missing, ", "))
	}
	return nil
}

func printRecipient(out io.Writer, r models.Recipient) {
	fmt.Fprintf(out, "%6d  %-30s %s\n", r.ID, r.FirstName+" "+r.LastName, r.EmailOrEmpty())
}

func printFieldErrors(out io.Writer, errs validation.Errors) {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, string(field))
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintf(out, "%s: %s\n", field, errs[validation.Field(field)])
	}
}
