package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go/twiml"

	"github.com/pathakanu/memoflow/internal/app"
	"github.com/pathakanu/memoflow/internal/model"
	"github.com/pathakanu/memoflow/internal/review"
	"github.com/pathakanu/memoflow/internal/twilio"
)

// listLimit caps how many memos a WhatsApp "list" reply shows.
const listLimit = 20

// Sender delivers WhatsApp messages.
type Sender interface {
	SendWhatsAppMessage(to, body string) error
}

// WebhookValidator verifies the signature of incoming webhook calls.
type WebhookValidator interface {
	ValidWebhook(url string, params map[string]string, signature string) bool
}

// Options configures a Bot.
type Options struct {
	Sender     Sender
	Validator  WebhookValidator
	WebhookURL string
	// NotifyTo is the owner's WhatsApp number. When set, scheduled reviews are
	// sent there and webhook messages from other numbers are refused.
	NotifyTo string
	Location *time.Location
}

// Bot is the WhatsApp channel and review scheduler of memoflow.
type Bot struct {
	svc        *app.Service
	sender     Sender
	validator  WebhookValidator
	webhookURL string
	notifyTo   string
	location   *time.Location
	logger     zerolog.Logger

	cron  *cron.Cron
	mu    sync.Mutex
	entry cron.EntryID
}

// New creates a Bot.
func New(svc *app.Service, logger zerolog.Logger, opts Options) *Bot {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Bot{
		svc:        svc,
		sender:     opts.Sender,
		validator:  opts.Validator,
		webhookURL: opts.WebhookURL,
		notifyTo:   opts.NotifyTo,
		location:   opts.Location,
		logger:     logger.With().Str("component", "bot").Logger(),
		cron:       cron.New(cron.WithLocation(opts.Location)),
	}
}

// StartScheduler registers the review job for settings and starts the cron loop.
func (b *Bot) StartScheduler(settings model.AppSettings) error {
	if err := b.Reschedule(settings); err != nil {
		return err
	}
	b.cron.Start()
	return nil
}

// Reschedule replaces the review job so it follows settings.
func (b *Bot) Reschedule(settings model.AppSettings) error {
	spec, err := CronSpec(settings)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.entry != 0 {
		b.cron.Remove(b.entry)
		b.entry = 0
	}
	id, err := b.cron.AddFunc(spec, b.runScheduledReview)
	if err != nil {
		return fmt.Errorf("schedule review %q: %w", spec, err)
	}
	b.entry = id
	b.logger.Info().
		Str("spec", spec).
		Str("frequency", string(settings.ReviewFrequency)).
		Time("next_run", b.cron.Entry(id).Schedule.Next(time.Now())).
		Msg("review scheduled")
	return nil
}

// NextRun returns when the scheduled review fires next after now.
func (b *Bot) NextRun(now time.Time) (time.Time, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry := b.cron.Entry(b.entry)
	if b.entry == 0 || entry.Schedule == nil {
		return time.Time{}, false
	}
	return entry.Schedule.Next(now), true
}

// StopScheduler stops the cron scheduler and waits for a running review.
func (b *Bot) StopScheduler() {
	ctx := b.cron.Stop()
	<-ctx.Done()
}

// CronSpec converts settings into a cron expression firing at ReviewTime:
// every day, every Sunday, or on the first of the month.
func CronSpec(settings model.AppSettings) (string, error) {
	hour, minute, err := settings.ReviewClock()
	if err != nil {
		return "", err
	}
	switch settings.ReviewFrequency {
	case model.FrequencyDaily:
		return fmt.Sprintf("%d %d * * *", minute, hour), nil
	case model.FrequencyWeekly:
		return fmt.Sprintf("%d %d * * 0", minute, hour), nil
	case model.FrequencyMonthly:
		return fmt.Sprintf("%d %d 1 * *", minute, hour), nil
	default:
		return "", fmt.Errorf("unknown review frequency %q", settings.ReviewFrequency)
	}
}

func (b *Bot) runScheduledReview() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	frequency := b.svc.GetSettings(ctx).ReviewFrequency
	result, err := b.svc.TriggerReview(ctx, frequency)
	if err != nil {
		b.logger.Error().Err(err).Msg("scheduler: review failed")
		return
	}
	if b.sender == nil || b.notifyTo == "" {
		return
	}
	if err := b.sender.SendWhatsAppMessage(b.notifyTo, FormatReview(result, b.location)); err != nil {
		b.logger.Error().Err(err).Msg("scheduler: send review")
	}
}

// Handler returns the HTTP handler for incoming Twilio messages.
func (b *Bot) Handler() http.HandlerFunc {
	return b.handleIncomingMessage
}

func (b *Bot) handleIncomingMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		b.logger.Warn().Err(err).Msg("webhook: parse error")
		b.writeTwilioResponse(w, "Sorry, I couldn't understand that request.")
		return
	}

	if b.validator != nil && b.webhookURL != "" {
		params := DecodeTwilioForm(r.PostForm)
		if !b.validator.ValidWebhook(b.webhookURL, params, r.Header.Get("X-Twilio-Signature")) {
			b.logger.Warn().Msg("webhook: invalid signature")
			http.Error(w, "invalid signature", http.StatusForbidden)
			return
		}
	}

	from := twilio.StripWhatsAppPrefix(r.FormValue("From"))
	body := strings.TrimSpace(r.FormValue("Body"))
	if from == "" || body == "" {
		b.writeTwilioResponse(w, "I need a message to work with. Please try again.")
		return
	}
	if b.notifyTo != "" && twilio.StripWhatsAppPrefix(b.notifyTo) != from {
		b.logger.Warn().Str("from", from).Msg("webhook: message from unknown number")
		b.writeTwilioResponse(w, "Sorry, this memo box belongs to someone else.")
		return
	}

	b.writeTwilioResponse(w, b.reply(r.Context(), body))
}

// reply runs a single WhatsApp command and returns the answer text.
// Anything that is not a command is saved as a memo.
func (b *Bot) reply(ctx context.Context, body string) string {
	lower := strings.ToLower(body)

	switch {
	case lower == "help":
		return helpResponse()
	case lower == "delete":
		return "Tell me which memo to delete by its number, e.g. 'delete 2' or 'delete 1,3'."
	case isListRequest(lower):
		return b.listMemos(ctx)
	}

	if frequency, ok := b.reviewCommand(ctx, lower); ok {
		return b.runReview(ctx, frequency)
	}
	if arg, ok := deleteArgument(body); ok {
		if indices := parseIndices(arg); len(indices) > 0 {
			return b.deleteMemos(ctx, indices)
		}
	}

	memo, _, err := b.svc.AddMemo(ctx, body)
	if err != nil {
		b.logger.Error().Err(err).Msg("webhook: save memo")
		return "I couldn't save that memo. Please try again."
	}
	return fmt.Sprintf("Saved: %s", memo.Content)
}

// reviewCommand recognises "review" and "review <frequency>".
func (b *Bot) reviewCommand(ctx context.Context, lower string) (model.ReviewFrequency, bool) {
	fields := strings.Fields(lower)
	if len(fields) == 0 || fields[0] != "review" {
		return "", false
	}
	switch len(fields) {
	case 1:
		return b.svc.GetSettings(ctx).ReviewFrequency, true
	case 2:
		f, err := model.ParseFrequency(fields[1])
		return f, err == nil
	default:
		return "", false
	}
}

// listMemos returns a numbered, day-grouped list of the most recent memos.
func (b *Bot) listMemos(ctx context.Context) string {
	memos := b.svc.ListMemos(ctx)
	if len(memos) == 0 {
		return "You have no memos yet. Send me one to get started!"
	}
	if len(memos) > listLimit {
		memos = memos[:listLimit]
	}

	var sb strings.Builder
	n := 0
	for _, group := range model.GroupByDay(memos, b.svc.Now(), b.location) {
		fmt.Fprintf(&sb, "%s\n", group.Label)
		for _, m := range group.Memos {
			n++
			fmt.Fprintf(&sb, "%d. %s (%s)\n", n, m.Content, m.Created().In(b.location).Format("15:04"))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// deleteMemos removes memos by their position in the "list" reply.
func (b *Bot) deleteMemos(ctx context.Context, indices []int) string {
	memos := listed(b.svc.ListMemos(ctx), b.svc.Now(), b.location)
	var ids []string
	for _, idx := range indices {
		if idx > len(memos) {
			return fmt.Sprintf("There is no memo number %d.", idx)
		}
		ids = append(ids, memos[idx-1].ID)
	}
	for _, id := range ids {
		if _, err := b.svc.RemoveMemo(ctx, id); err != nil {
			b.logger.Error().Err(err).Str("memo_id", id).Msg("webhook: delete memo")
			return "I couldn't delete that memo. Please try again."
		}
	}

	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.Itoa(idx)
	}
	return fmt.Sprintf("Deleted memo(s): %s.", strings.Join(parts, ", "))
}

func (b *Bot) runReview(ctx context.Context, frequency model.ReviewFrequency) string {
	result, err := b.svc.TriggerReview(ctx, frequency)
	switch {
	case err == nil:
		return FormatReview(result, b.location)
	case errors.Is(err, app.ErrReviewInProgress):
		return "A review is already being prepared. Hang tight."
	case errors.Is(err, review.ErrConfiguration):
		return "I can't generate a review right now: the analysis service is not configured."
	default:
		return "Failed to generate the review. Please try again later."
	}
}

// FormatReview renders a review as a plain-text WhatsApp message.
func FormatReview(r model.AIReviewResult, loc *time.Location) string {
	var sb strings.Builder
	start := time.UnixMilli(r.PeriodStart).In(loc).Format("Jan 2 15:04")
	end := time.UnixMilli(r.PeriodEnd).In(loc).Format("Jan 2 15:04")
	fmt.Fprintf(&sb, "Your %s review (%s - %s)\n", r.Frequency, start, end)
	fmt.Fprintf(&sb, "Mood: %s | work %d, life %d, growth %d\n\n", r.Dimensions.Mood,
		r.Dimensions.Scores.Work, r.Dimensions.Scores.Life, r.Dimensions.Scores.Growth)
	sb.WriteString(r.Summary)
	writeSection(&sb, "Connections", r.Connections)
	writeSection(&sb, "Actions", r.ActionableItems)
	if len(r.Tags) > 0 {
		fmt.Fprintf(&sb, "\n\n#%s", strings.Join(r.Tags, " #"))
	}
	return sb.String()
}

func writeSection(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n\n%s:", title)
	for _, item := range items {
		fmt.Fprintf(sb, "\n- %s", item)
	}
}

func (b *Bot) writeTwilioResponse(w http.ResponseWriter, message string) {
	out, err := twiml.Messages([]twiml.Element{&twiml.MessagingMessage{Body: message}})
	if err != nil {
		b.logger.Error().Err(err).Msg("twilio response encode")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(out))
}

// listed flattens memos in the order the "list" reply numbers them.
func listed(memos []model.Memo, now time.Time, loc *time.Location) []model.Memo {
	if len(memos) > listLimit {
		memos = memos[:listLimit]
	}
	var out []model.Memo
	for _, g := range model.GroupByDay(memos, now, loc) {
		out = append(out, g.Memos...)
	}
	return out
}

func isListRequest(body string) bool {
	return body == "list" ||
		strings.Contains(body, "list memos") ||
		strings.Contains(body, "show memos") ||
		strings.Contains(body, "list my memos") ||
		strings.Contains(body, "show my memos")
}

func helpResponse() string {
	return "Send me any text and I'll save it as a memo. You can also say:\n- \"list\" to see recent memos\n- \"delete 2\" or \"delete 1,3\" to remove memos by number\n- \"review\" (or \"review weekly\") to get a reflective review"
}

var deleteRegex = regexp.MustCompile(`(?i)^delete\s+(.+)$`)

func deleteArgument(message string) (string, bool) {
	matches := deleteRegex.FindStringSubmatch(strings.TrimSpace(message))
	if len(matches) < 2 {
		return "", false
	}
	return strings.TrimSpace(matches[1]), true
}

// parseIndices reads 1-based positions separated by commas or spaces.
// Any invalid token makes the whole input invalid.
func parseIndices(input string) []int {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' '
	})
	if len(fields) == 0 {
		return nil
	}
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 {
			return nil
		}
		out = append(out, n)
	}
	return out
}

// DecodeTwilioForm extracts the POST form data into a map for convenience.
func DecodeTwilioForm(values url.Values) map[string]string {
	result := make(map[string]string, len(values))
	for key, value := range values {
		if len(value) > 0 {
			result[key] = value[0]
		}
	}
	return result
}
