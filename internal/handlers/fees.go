package handlers

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/fastclub/internal/fees"
	"github.com/Kerhoff/fastclub/internal/models"
	"github.com/Kerhoff/fastclub/internal/service"
)

var statusIcons = map[models.FeeStatus]string{
	models.FeeStatusPending: "⏳",
	models.FeeStatusOverdue: "🔴",
	models.FeeStatusPaid:    "✅",
	models.FeeStatusWaived:  "➖",
}

func formatFee(v service.FeeView, memberName string) string {
	line := fmt.Sprintf("%s *#%d* %s %s, due %s",
		statusIcons[v.DisplayStatus], v.ID, escape(v.FeeType), v.Amount.StringFixed(2), v.DueDate.Format("2006-01-02"))
	if memberName != "" {
		line += " (" + escape(memberName) + ")"
	}
	return line + "\n"
}

// formatFeeOverview renders the per-status totals followed by the open fees.
func formatFeeOverview(summary map[models.FeeStatus]fees.StatusTotal, open []service.FeeView, names map[int64]string) string {
	var sb strings.Builder
	sb.WriteString("💶 *Fees*\n\n")

	for _, status := range []models.FeeStatus{models.FeeStatusOverdue, models.FeeStatusPending, models.FeeStatusPaid, models.FeeStatusWaived} {
		total, ok := summary[status]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s %s: %d (%s)\n", statusIcons[status], status, total.Count, total.Amount.StringFixed(2)))
	}
	if len(summary) == 0 {
		sb.WriteString("_No fees recorded yet._\n")
	}

	if len(open) > 0 {
		sb.WriteString("\n*Open*\n")
		for i, v := range open {
			if i == 15 {
				sb.WriteString(fmt.Sprintf("_…and %d more_\n", len(open)-i))
				break
			}
			sb.WriteString(formatFee(v, names[v.MemberID]))
		}
	}
	return sb.String()
}

// openFees keeps pending and overdue fees, overdue first.
func openFees(views []service.FeeView) []service.FeeView {
	open := slices.DeleteFunc(slices.Clone(views), func(v service.FeeView) bool {
		return v.IsClosed()
	})
	slices.SortStableFunc(open, func(a, b service.FeeView) int {
		ao, bo := a.DisplayStatus == models.FeeStatusOverdue, b.DisplayStatus == models.FeeStatusOverdue
		switch {
		case ao && !bo:
			return -1
		case bo && !ao:
			return 1
		}
		return a.DueDate.Compare(b.DueDate)
	})
	return open
}

// ---------------------------------------------------------------------------
// FeesHandler – /fees
// ---------------------------------------------------------------------------

// FeesHandler shows the club's fee totals and open fees.
type FeesHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewFeesHandler creates a new FeesHandler.
func NewFeesHandler(svc *service.Service, logger *logrus.Logger) *FeesHandler {
	return &FeesHandler{svc: svc, logger: logger}
}

// Handle processes the /fees command.
func (h *FeesHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	club, err := clubFor(ctx, h.svc, message)
	if err != nil {
		return err
	}

	summary, err := h.svc.FeeSummary(ctx, club.ID)
	if err != nil {
		return fmt.Errorf("fee summary: %w", err)
	}
	views, err := h.svc.ListFees(ctx, club.ID, nil, nil)
	if err != nil {
		return fmt.Errorf("list fees: %w", err)
	}
	members, err := h.svc.ListMembers(ctx, club.ID, nil)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}

	names := make(map[int64]string, len(members))
	for _, m := range members {
		names[m.ID] = m.FullName()
	}

	return reply(bot, message, formatFeeOverview(summary, openFees(views), names))
}

// ---------------------------------------------------------------------------
// MyFeesHandler – /myfees
// ---------------------------------------------------------------------------

// MyFeesHandler lists the fees of the member linked to the sender.
type MyFeesHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewMyFeesHandler creates a new MyFeesHandler.
func NewMyFeesHandler(svc *service.Service, logger *logrus.Logger) *MyFeesHandler {
	return &MyFeesHandler{svc: svc, logger: logger}
}

// Handle processes the /myfees command.
func (h *MyFeesHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	club, err := clubFor(ctx, h.svc, message)
	if err != nil {
		return err
	}

	member, err := h.svc.MemberByTelegramID(ctx, club.ID, message.From.ID)
	if err != nil {
		return err
	}
	if member == nil {
		return reply(bot, message, "ℹ️ Your Telegram account is not linked to a member of this club yet.")
	}

	views, err := h.svc.ListFees(ctx, club.ID, &member.ID, nil)
	if err != nil {
		return fmt.Errorf("list fees: %w", err)
	}
	if len(views) == 0 {
		return reply(bot, message, "🎉 You have no fees on record.")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💶 *Fees of %s*\n\n", escape(member.FullName())))
	for _, v := range views {
		sb.WriteString(formatFee(v, ""))
	}
	return reply(bot, message, sb.String())
}

// ---------------------------------------------------------------------------
// PaidHandler – /paid <id> [method]
// ---------------------------------------------------------------------------

// PaidHandler marks a fee of the club as paid today.
type PaidHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewPaidHandler creates a new PaidHandler.
func NewPaidHandler(svc *service.Service, logger *logrus.Logger) *PaidHandler {
	return &PaidHandler{svc: svc, logger: logger}
}

// Handle processes the /paid command.
func (h *PaidHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return reply(bot, message, "❌ Please provide a fee ID.\nUsage: `/paid 12 transfer`")
	}
	feeID, err := parseID(args[0])
	if err != nil {
		return reply(bot, message, "❌ Invalid ID. Please provide a numeric fee ID.")
	}
	method := strings.Join(args[1:], " ")

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	club, err := clubFor(ctx, h.svc, message)
	if err != nil {
		return err
	}
	if ok, err := feeOfClub(ctx, h.svc, club, feeID); err != nil || !ok {
		return replyFailure(bot, message, err)
	}

	paid, err := h.svc.MarkFeePaid(ctx, feeID, h.svc.Today(club), method)
	if err != nil {
		return replyFailure(bot, message, err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
		"fee_id":  paid.ID,
	}).Info("Fee marked paid")

	return reply(bot, message, fmt.Sprintf("✅ Fee *#%d* marked as paid.", paid.ID))
}

// ---------------------------------------------------------------------------
// WaiveHandler – /waive <id> [reason]
// ---------------------------------------------------------------------------

// WaiveHandler releases a member from a fee.
type WaiveHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewWaiveHandler creates a new WaiveHandler.
func NewWaiveHandler(svc *service.Service, logger *logrus.Logger) *WaiveHandler {
	return &WaiveHandler{svc: svc, logger: logger}
}

// Handle processes the /waive command.
func (h *WaiveHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return reply(bot, message, "❌ Please provide a fee ID.\nUsage: `/waive 12 hardship`")
	}
	feeID, err := parseID(args[0])
	if err != nil {
		return reply(bot, message, "❌ Invalid ID. Please provide a numeric fee ID.")
	}
	reason := strings.Join(args[1:], " ")

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	club, err := clubFor(ctx, h.svc, message)
	if err != nil {
		return err
	}
	if ok, err := feeOfClub(ctx, h.svc, club, feeID); err != nil || !ok {
		return replyFailure(bot, message, err)
	}
	if _, err := h.svc.WaiveFee(ctx, feeID, reason); err != nil {
		return replyFailure(bot, message, err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
		"fee_id":  feeID,
	}).Info("Fee waived")

	return reply(bot, message, fmt.Sprintf("➖ Fee *#%d* waived.", feeID))
}

// replyFailure answers expected errors in the chat and passes the rest on
// to the router. A nil err means the fee was not found.
func replyFailure(bot *tgbotapi.BotAPI, message *tgbotapi.Message, err error) error {
	if err == nil {
		return reply(bot, message, "❌ Not found.")
	}
	if msg := explain(err); msg != "" {
		return reply(bot, message, msg)
	}
	return err
}

// feeOfClub reports whether the fee exists and belongs to club.
func feeOfClub(ctx context.Context, svc *service.Service, club *models.Club, feeID int64) (bool, error) {
	ob, err := svc.Fees.GetByID(ctx, feeID)
	if err != nil {
		return false, fmt.Errorf("get fee: %w", err)
	}
	return ob != nil && ob.ClubID == club.ID, nil
}

// ---------------------------------------------------------------------------
// GenerateFeesHandler – /genfees
// ---------------------------------------------------------------------------

// GenerateFeesHandler issues the missing annual fees of the club.
type GenerateFeesHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewGenerateFeesHandler creates a new GenerateFeesHandler.
func NewGenerateFeesHandler(svc *service.Service, logger *logrus.Logger) *GenerateFeesHandler {
	return &GenerateFeesHandler{svc: svc, logger: logger}
}

// Handle processes the /genfees command.
func (h *GenerateFeesHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	club, err := clubFor(ctx, h.svc, message)
	if err != nil {
		return err
	}

	summary, err := h.svc.GenerateAnnualFees(ctx, club.ID)
	if err != nil {
		return fmt.Errorf("generate annual fees: %w", err)
	}

	return reply(bot, message, formatGeneration(summary))
}

func formatGeneration(summary *service.GenerationSummary) string {
	if summary.Created == 0 {
		return fmt.Sprintf("ℹ️ All annual fees for %d are already issued (%d member(s) covered).", summary.Year, summary.Skipped)
	}
	return fmt.Sprintf("💶 *Annual fees %d*\nIssued %d new fee(s) of %s. %d already covered, %d not in active standing.",
		summary.Year, summary.Created, summary.Amount.StringFixed(2), summary.Skipped, summary.Ineligible)
}
