package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/infra/observability"
	"github.com/boddenberg/finance-tracker-go/internal/service"
	"github.com/boddenberg/finance-tracker-go/internal/ui"

	"go.uber.org/zap"
)

type chatFixture struct {
	api        *mockChatAPI
	refresher  *countingRefresher
	transcript *ui.Transcript
	composer   *ui.Composer
	metrics    *observability.Metrics
	chat       *service.Chat
}

func newChatFixture() *chatFixture {
	f := &chatFixture{
		api:        &mockChatAPI{},
		refresher:  &countingRefresher{},
		transcript: ui.NewTranscript(),
		composer:   ui.NewComposer(),
		metrics:    observability.NewMetrics(),
	}
	f.chat = service.NewChat(f.api, f.transcript, f.composer, f.refresher, f.metrics, zap.NewNop())
	return f
}

func (f *chatFixture) send(t *testing.T, text string) []domain.ChatMessage {
	t.Helper()
	f.composer.SetInput(text)
	if err := f.chat.Send(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.chat.Wait()
	return f.transcript.Messages()
}

func texts(msgs []domain.ChatMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = string(m.Sender) + ":" + m.Text
	}
	return out
}

func TestChat_UserMessageBeforeReplyAndOneTypingPair(t *testing.T) {
	f := newChatFixture()

	var events []ui.TranscriptEvent
	var mu sync.Mutex
	f.transcript.Subscribe(func(e ui.TranscriptEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	var duringCall []domain.ChatMessage
	f.api.sendFn = func(_ context.Context, msg string) (*domain.MessageResponse, error) {
		duringCall = f.transcript.Messages()
		return &domain.MessageResponse{Success: true, Message: "Logged!"}, nil
	}

	msgs := f.send(t, "I spent 2000 on lunch")

	if len(duringCall) != 2 || duringCall[0].Sender != domain.SenderUser || !duringCall[1].Typing {
		t.Fatalf("expected user message then typing indicator during the call, got %v", texts(duringCall))
	}

	inserts, removes := 0, 0
	for _, e := range events {
		if e.Message.Typing {
			if e.Removed {
				removes++
			} else {
				inserts++
			}
		}
	}
	if inserts != 1 || removes != 1 {
		t.Errorf("expected one typing insert/remove pair, got %d/%d", inserts, removes)
	}

	want := []string{"user:I spent 2000 on lunch", "bot:Logged!"}
	if strings.Join(texts(msgs), "|") != strings.Join(want, "|") {
		t.Errorf("unexpected transcript %v", texts(msgs))
	}
	if !f.composer.SendEnabled() || !f.composer.Focused() || f.composer.Input() != "" {
		t.Error("expected send re-enabled, focus restored and input cleared")
	}
}

func TestChat_RoundTripAgainstBackend(t *testing.T) {
	e := newEnv(t, 20)
	e.login(t)
	e.backend.MessageHandler = func(message string) (int, any) {
		if message != "I spent 2000 on lunch" {
			t.Errorf("unexpected message %q", message)
		}
		var body map[string]any
		json.Unmarshal([]byte(`{"success":true,"message":"Logged!","transactions":[{"item":"lunch","amount":2000,"direction":"outflow","category":"food"}]}`), &body)
		return http.StatusOK, body
	}

	e.composer.SetInput("I spent 2000 on lunch")
	if err := e.chat.Send(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e.chat.Wait()

	var bot []string
	for _, m := range e.transcript.Messages() {
		if m.Sender == domain.SenderBot {
			bot = append(bot, m.Text)
		}
	}
	if len(bot) != 2 || bot[0] != "Logged!" || bot[1] != "💸 lunch: J$2,000.00 (food)" {
		t.Errorf("unexpected bot messages %q", bot)
	}
}

func TestChat_TransactionsSummaryInOrder(t *testing.T) {
	f := newChatFixture()
	f.api.sendFn = func(context.Context, string) (*domain.MessageResponse, error) {
		var resp domain.MessageResponse
		json.Unmarshal([]byte(`{"success":true,"message":"Logged 2","transactions":[
			{"item":"salary","amount":"150000","direction":"inflow","category":"income"},
			{"item":"taxi","amount":800.5,"direction":"outflow","category":"transport"}]}`), &resp)
		return &resp, nil
	}

	msgs := f.send(t, "got paid, took a taxi")

	want := "💵 salary: J$150,000.00 (income)\n💸 taxi: J$800.50 (transport)"
	if last := msgs[len(msgs)-1]; last.Text != want {
		t.Errorf("expected %q, got %q", want, last.Text)
	}
	if f.refresher.calls.Load() != 0 {
		t.Error("no totals in the response, no refresh expected")
	}
}

func TestChat_TotalsTriggerBackgroundRefresh(t *testing.T) {
	f := newChatFixture()
	f.api.sendFn = func(context.Context, string) (*domain.MessageResponse, error) {
		return &domain.MessageResponse{
			Success: true,
			Message: "Logged!",
			Data:    json.RawMessage(`{"total_income":0,"total_expense":2000}`),
		}, nil
	}

	f.send(t, "lunch 2000")

	if got := f.refresher.calls.Load(); got != 1 {
		t.Errorf("expected one dashboard refresh, got %d", got)
	}
}

func TestChat_FailureTexts(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "quota",
			err:  &domain.ErrQuotaExceeded{Message: "Free plan limit reached (100 transactions)"},
			want: "⭐ Free plan limit reached (100 transactions)\n\nGo to Plan tab to upgrade.",
		},
		{
			name: "rejected with message",
			err:  &domain.ErrBackendRejected{Message: "Could not parse amount"},
			want: "Could not parse amount",
		},
		{
			name: "rejected without message",
			err:  &domain.ErrBackendRejected{},
			want: domain.GenericFailureText,
		},
		{
			name: "transport",
			err:  &domain.ErrConnection{Err: errors.New("connection refused")},
			want: domain.ConnectivityText,
		},
		{
			name: "session expired",
			err:  &domain.ErrAuthExpired{},
			want: domain.SessionExpiredText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChatFixture()
			f.api.sendFn = func(context.Context, string) (*domain.MessageResponse, error) {
				return nil, tt.err
			}

			msgs := f.send(t, "hello")

			if len(msgs) != 2 {
				t.Fatalf("expected user + bot message, got %v", texts(msgs))
			}
			if msgs[1].Text != tt.want {
				t.Errorf("expected %q, got %q", tt.want, msgs[1].Text)
			}
			if !f.composer.SendEnabled() {
				t.Error("send must be re-enabled on failure")
			}
		})
	}
}

func TestChat_EmptySendIsSkipped(t *testing.T) {
	f := newChatFixture()
	f.api.sendFn = func(context.Context, string) (*domain.MessageResponse, error) {
		t.Fatal("no call expected")
		return nil, nil
	}

	f.composer.SetInput("  ")
	if err := f.chat.Send(context.Background()); !errors.Is(err, domain.ErrValidationSkipped) {
		t.Fatalf("expected ErrValidationSkipped, got %v", err)
	}
	if n := len(f.transcript.Messages()); n != 0 {
		t.Errorf("expected empty transcript, got %d entries", n)
	}
}

func TestChat_ImageUpload(t *testing.T) {
	f := newChatFixture()
	var got *domain.OCRRequest
	f.api.uploadFn = func(_ context.Context, req *domain.OCRRequest) (*domain.OCRResponse, error) {
		got = req
		return &domain.OCRResponse{Note: "Receipt queued"}, nil
	}
	f.composer.SetPendingImage("data:image/png;base64,AAAA")

	msgs := f.send(t, "lunch receipt")

	if got == nil || got.Image != "data:image/png;base64,AAAA" || got.Message != "lunch receipt" {
		t.Fatalf("unexpected upload %+v", got)
	}
	want := []string{"user:lunch receipt", "user:" + domain.UploadingReceiptText, "bot:Receipt queued"}
	if strings.Join(texts(msgs), "|") != strings.Join(want, "|") {
		t.Errorf("unexpected transcript %v", texts(msgs))
	}
	if _, ok := f.composer.PendingImage(); ok {
		t.Error("pending image should be cleared after a response")
	}
}

func TestChat_ImageWithoutAcknowledgement(t *testing.T) {
	f := newChatFixture()
	f.api.uploadFn = func(context.Context, *domain.OCRRequest) (*domain.OCRResponse, error) {
		return &domain.OCRResponse{}, nil
	}
	f.composer.SetPendingImage("data:image/jpeg;base64,AAAA")

	msgs := f.send(t, "")

	if last := msgs[len(msgs)-1]; last.Text != domain.ImageReceivedText {
		t.Errorf("expected %q, got %q", domain.ImageReceivedText, last.Text)
	}
	if msgs[0].Text != domain.UploadingReceiptText {
		t.Errorf("image-only sends start with the upload line, got %q", msgs[0].Text)
	}
}

func TestChat_ImageKeptOnTransportFailure(t *testing.T) {
	f := newChatFixture()
	f.api.uploadFn = func(context.Context, *domain.OCRRequest) (*domain.OCRResponse, error) {
		return nil, &domain.ErrConnection{Err: errors.New("timeout")}
	}
	f.composer.SetPendingImage("data:image/png;base64,AAAA")

	msgs := f.send(t, "")

	if last := msgs[len(msgs)-1]; last.Text != domain.ConnectivityText {
		t.Errorf("unexpected reply %q", last.Text)
	}
	if _, ok := f.composer.PendingImage(); !ok {
		t.Error("pending image should survive a transport failure")
	}
}

func TestChat_AttachImage(t *testing.T) {
	f := newChatFixture()
	dir := t.TempDir()

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
	path := filepath.Join(dir, "receipt.png")
	if err := os.WriteFile(path, png, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := f.chat.AttachImage(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	uri, ok := f.composer.PendingImage()
	if !ok || !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Errorf("unexpected data uri %q", uri)
	}

	text := filepath.Join(dir, "notes.txt")
	os.WriteFile(text, []byte("not an image"), 0o600)
	if err := f.chat.AttachImage(text); err == nil {
		t.Error("expected non-image to be refused")
	}
	if cur, _ := f.composer.PendingImage(); cur != uri {
		t.Error("a refused attachment must keep the previous image")
	}

	f.chat.RemoveImage()
	if _, ok := f.composer.PendingImage(); ok {
		t.Error("expected image removed")
	}
}

func TestChat_SendOutcomeMetrics(t *testing.T) {
	f := newChatFixture()
	f.api.sendFn = func(context.Context, string) (*domain.MessageResponse, error) {
		return nil, &domain.ErrQuotaExceeded{Message: "limit"}
	}

	f.send(t, "a")
	f.send(t, "b")

	if got := f.metrics.Snapshot().ChatSends[domain.KindQuota]; got != 2 {
		t.Errorf("expected 2 quota outcomes, got %v", got)
	}
}
