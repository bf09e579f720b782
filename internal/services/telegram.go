package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"net/http"
	"strings"
	"time"
)

const defaultCurrency = "INR"

// TelegramService handles sending notifications to Telegram.
type TelegramService struct {
	botToken    string
	adminChatID string
	baseURL     string
	client      *http.Client
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		baseURL:     "https://api.telegram.org",
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		log.Println("[Telegram] Bot token not configured")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[Telegram] Failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Telegram] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.adminChatID == "" {
		log.Println("[Telegram] Admin chat ID not configured")
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, text)
}

// PurchaseNotification contains the data of a captured ebook payment.
type PurchaseNotification struct {
	OrderID       uint
	EbookName     string
	UserName      string
	UserPhone     string
	TransactionID string
	Amount        float64
	Currency      string
}

// FormatPrice formats an amount with two decimals, thousand separators and currency.
func FormatPrice(amount float64, currency string) string {
	if currency == "" {
		currency = defaultCurrency
	}

	negative := amount < 0
	if negative {
		amount = -amount
	}
	str := fmt.Sprintf("%.2f", amount)
	whole, fraction, _ := strings.Cut(str, ".")

	var result strings.Builder
	if negative {
		result.WriteString("-")
	}
	length := len(whole)
	for i, digit := range whole {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return result.String() + "." + fraction + " " + currency
}

// NotifyPurchase tells the admin chat about a captured payment.
func (s *TelegramService) NotifyPurchase(ctx context.Context, purchase PurchaseNotification) error {
	if s.adminChatID == "" {
		return nil
	}

	message := fmt.Sprintf(`<b>New ebook purchase</b>
<b>Order:</b> #%d
<b>Ebook:</b> %s
<b>Customer:</b> %s
<b>Phone:</b> %s
<b>Amount:</b> %s
<b>Transaction:</b> %s`,
		purchase.OrderID,
		html.EscapeString(purchase.EbookName),
		html.EscapeString(purchase.UserName),
		html.EscapeString(purchase.UserPhone),
		FormatPrice(purchase.Amount, purchase.Currency),
		html.EscapeString(purchase.TransactionID),
	)

	return s.SendToAdmin(ctx, strings.TrimSpace(message))
}
