package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jzOcb/kalshi-trading/internal/domain"
)

// Notification carries the opportunities worth pushing out of one scan.
type Notification struct {
	Bucket        time.Time
	Opportunities []domain.Opportunity
	Channels      []string
	AdditionalMsg string
}

// Notifier defines the alert delivery interface.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier pushes messages through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram notifier.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify sends the rendered text via the sendMessage API.
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram unexpected status: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().Time("bucket", note.Bucket).
		Int("opportunities", len(note.Opportunities)).
		Str("channels", strings.Join(note.Channels, ",")).
		Msg("alert dispatched (Telegram)")
	return nil
}

func renderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString("[Kalshi Mispricing Alert]\n")
	builder.WriteString(fmt.Sprintf("Scan: %s UTC\n", note.Bucket.UTC().Format(time.RFC3339)))

	for _, o := range note.Opportunities {
		switch o.Type {
		case domain.OppEdge:
			builder.WriteString(fmt.Sprintf("%s %s @%d¢ prob %.1f%% net edge %.1f¢ (%s)\n",
				o.Ticker, o.Side, o.EntryCostCents, o.ImpliedProbability, o.NetEdge, o.Confidence))
		default:
			builder.WriteString(fmt.Sprintf("%s parity profit $%s/set (%s%%), %d legs, risk %d\n",
				o.Ticker, o.NetProfit.StringFixed(4), o.ProfitPct.StringFixed(2), o.Legs, o.RiskScore))
			if o.StaleWarning {
				builder.WriteString("  warning: edge large enough to suggest stale quotes\n")
			}
		}
		if o.URL != "" {
			builder.WriteString(fmt.Sprintf("  %s\n", o.URL))
		}
	}

	if len(note.Channels) > 0 {
		builder.WriteString(fmt.Sprintf("Channels: %s\n", strings.Join(note.Channels, ",")))
	}
	if note.AdditionalMsg != "" {
		builder.WriteString(note.AdditionalMsg)
	}
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
