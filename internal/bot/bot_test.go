package bot

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/drill/internal/logging"
	"github.com/example/drill/internal/practice"
	"github.com/example/drill/internal/practice/practicetest"
	"github.com/example/drill/internal/quiz"
	sr "github.com/example/drill/internal/spaced_repetition"
)

const testChat int64 = 4242

// fakeAPI records sent messages and feeds updates from a channel
type fakeAPI struct {
	mu      sync.Mutex
	sent    []tgbotapi.MessageConfig
	updates chan tgbotapi.Update
	sendErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 32)}
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetSelf() tgbotapi.User {
	return tgbotapi.User{UserName: "drill_test_bot"}
}

func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.Text
	}
	return out
}

func (f *fakeAPI) count(prefix string) int {
	n := 0
	for _, text := range f.texts() {
		if strings.HasPrefix(text, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeAPI) last(prefix string) string {
	texts := f.texts()
	for i := len(texts) - 1; i >= 0; i-- {
		if strings.HasPrefix(texts[i], prefix) {
			return texts[i]
		}
	}
	return ""
}

func command(chat int64, text string) tgbotapi.Update {
	cmd := strings.SplitN(text, " ", 2)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chat},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func text(chat int64, s string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{Text: s, Chat: &tgbotapi.Chat{ID: chat}}}
}

func callback(chat int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chat}},
	}}
}

const capitalsDoc = `
name: capitals
type: default
data:
  question_prefix: "Capital of "
items:
  - {id: fr, question: France, answers: [Paris]}
  - {id: no, question: Norway, answers: [Oslo]}
`

var capitals = map[string]string{
	"Capital of France?": "Paris",
	"Capital of Norway?": "Oslo",
}

func newTestBot(t *testing.T) (*Bot, *fakeAPI, *practicetest.Store, *practice.Service) {
	t.Helper()
	store := practicetest.New()
	svc, err := practice.NewService(context.Background(), store, practice.WithRand(rand.New(rand.NewSource(1))))
	require.NoError(t, err)

	d, err := quiz.ParseDescriptor([]byte(capitalsDoc))
	require.NoError(t, err)
	_, err = svc.Ingest(context.Background(), []quiz.Descriptor{d})
	require.NoError(t, err)

	api := newFakeAPI()
	logger := logging.Discard()
	return New(api, testChat, svc, 0.6, logger), api, store, svc
}

// runBot starts the update loop and stops it when the test ends
func runBot(t *testing.T, b *Bot) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("bot did not stop")
		}
	})
}

func TestPracticeSessionOverChat(t *testing.T) {
	b, api, store, svc := newTestBot(t)
	runBot(t, b)

	api.updates <- command(testChat, "/practice capitals 2 bottom")

	for i := 1; i <= 2; i++ {
		require.Eventually(t, func() bool { return api.count("Capital of ") == i }, time.Second, 5*time.Millisecond)
		prompt := api.last("Capital of ")
		api.updates <- text(testChat, capitals[prompt])
	}

	require.Eventually(t, func() bool { return api.last("🎉 Done!") != "" }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "🎉 Done! First pass: 2/2 correct, 1 pass in total.", api.last("🎉"))
	assert.Equal(t, 2, api.count("✅ Correct!"))
	assert.Len(t, store.Events, 2)

	for _, id := range store.MembersOf("capitals") {
		est, err := svc.Estimate(id)
		require.NoError(t, err)
		assert.Equal(t, 1.0, est)
	}
	assert.Eventually(t, func() bool { return !b.sessionRunning() }, time.Second, 5*time.Millisecond)
}

func TestWrongAnswerStartsAnotherPass(t *testing.T) {
	b, api, _, _ := newTestBot(t)
	runBot(t, b)

	api.updates <- callback(testChat, callbackPractice+"capitals")

	// First pass: miss everything. Second pass: answer both.
	for i := 1; i <= 4; i++ {
		require.Eventually(t, func() bool { return api.count("Capital of ") == i }, time.Second, 5*time.Millisecond)
		answer := "Lyon"
		if i > 2 {
			answer = capitals[api.last("Capital of ")]
		}
		api.updates <- text(testChat, answer)
	}

	require.Eventually(t, func() bool { return api.last("🎉") != "" }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "0/2 correct. Continuing with the remaining 2 wrong answers.", api.last("0/2"))
	assert.Equal(t, "🎉 Done! First pass: 0/2 correct, 2 passes in total.", api.last("🎉"))
}

func TestStopCancelsSession(t *testing.T) {
	b, api, store, _ := newTestBot(t)
	runBot(t, b)

	api.updates <- command(testChat, "/practice capitals")
	require.Eventually(t, func() bool { return api.count("Capital of ") == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, b.sessionRunning())

	api.updates <- command(testChat, "/stats")
	require.Eventually(t, func() bool { return api.last("A session is running") != "" }, time.Second, 5*time.Millisecond)

	api.updates <- command(testChat, "/stop")
	require.Eventually(t, func() bool { return !b.sessionRunning() }, time.Second, 5*time.Millisecond)
	assert.NotEmpty(t, api.last("Session stopped."))
	assert.Empty(t, store.Events)

	api.updates <- command(testChat, "/stop")
	require.Eventually(t, func() bool { return api.last("No session is running.") != "" }, time.Second, 5*time.Millisecond)
}

func TestCommandsWhileIdle(t *testing.T) {
	b, api, _, _ := newTestBot(t)
	runBot(t, b)

	api.updates <- command(testChat, "/sets")
	require.Eventually(t, func() bool { return api.last("📚 Sets") != "" }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "📚 Sets\n\n• capitals (2)", api.last("📚 Sets"))

	api.updates <- callback(testChat, callbackStats)
	require.Eventually(t, func() bool { return api.last("📊") != "" }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "📊 Statistics\n\ncapitals: 2 items, 0 practiced, 0 mastered, mean 0.50", api.last("📊"))

	api.updates <- command(testChat, "/practice nowhere")
	require.Eventually(t, func() bool { return api.last("Unknown set") != "" }, time.Second, 5*time.Millisecond)

	api.updates <- text(testChat, "hello")
	require.Eventually(t, func() bool { return api.last("I don't understand") != "" }, time.Second, 5*time.Millisecond)

	api.updates <- command(testChat, "/dance")
	require.Eventually(t, func() bool { return api.last("Unknown command") != "" }, time.Second, 5*time.Millisecond)
}

func TestIgnoresOtherChats(t *testing.T) {
	b, api, _, _ := newTestBot(t)
	runBot(t, b)

	api.updates <- command(1, "/sets")
	api.updates <- callback(1, callbackStats)
	api.updates <- command(testChat, "/help")

	require.Eventually(t, func() bool { return len(api.texts()) == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, strings.HasPrefix(api.texts()[0], "📖 Commands"))
}

func TestParsePracticeArgs(t *testing.T) {
	pa, err := parsePracticeArgs("capitals")
	require.NoError(t, err)
	assert.Equal(t, practiceArgs{set: "capitals", count: 10, strategy: sr.WeightedRandom, selection: sr.SelectAll}, pa)

	pa, err = parsePracticeArgs("words 5 oldest practiced")
	require.NoError(t, err)
	assert.Equal(t, practiceArgs{set: "words", count: 5, strategy: sr.OldestAnswer, selection: sr.SelectPracticed}, pa)

	_, err = parsePracticeArgs("")
	assert.Error(t, err)
	_, err = parsePracticeArgs("words 0")
	assert.Error(t, err)
	_, err = parsePracticeArgs("words sideways")
	assert.Error(t, err)
}

func TestNotifyWeakItems(t *testing.T) {
	b, api, _, _ := newTestBot(t)

	require.NoError(t, b.NotifyWeakItems(context.Background(), nil))
	assert.Empty(t, api.texts())

	weak := []practice.ItemSummary{
		{Family: "capitals", Name: "fr", Estimate: 0.2},
		{Family: "capitals", Name: "no", Estimate: 0.45},
	}
	require.NoError(t, b.NotifyWeakItems(context.Background(), weak))
	assert.Equal(t, "You have 2 weak items to review.\nWeakest:\n• capitals/fr (0.20)\n• capitals/no (0.45)", api.last("You have"))

	api.sendErr = errors.New("network down")
	assert.Error(t, b.NotifyWeakItems(context.Background(), weak[:1]))
}
