package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lingocards/lingo-api/internal/api"
	"github.com/lingocards/lingo-api/internal/api/middleware"
	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/domain/srs"
	"github.com/lingocards/lingo-api/internal/mocks"
	"github.com/lingocards/lingo-api/internal/service/auth"
	"github.com/lingocards/lingo-api/internal/service/cards"
	"github.com/lingocards/lingo-api/internal/service/progress"
	"github.com/lingocards/lingo-api/internal/service/speech"
	"github.com/lingocards/lingo-api/internal/service/study"
	"github.com/stretchr/testify/require"
)

var fixedDay = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

type fixture struct {
	handler    http.Handler
	cards      *mocks.MockCardStore
	users      *mocks.MockUserStore
	progress   *mocks.MockProgressStore
	synth      *mocks.MockSynthesizer
	recognizer *mocks.MockRecognizer
	tokens     *auth.MockJWTService
	seedDir    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		cards:      mocks.NewMockCardStore("mod1", "mod2"),
		users:      mocks.NewMockUserStore(),
		progress:   mocks.NewMockProgressStore(),
		synth:      &mocks.MockSynthesizer{},
		recognizer: &mocks.MockRecognizer{},
		tokens:     auth.NewMockJWTService("xiaoming"),
		seedDir:    t.TempDir(),
	}

	modules := domain.NewModuleRegistry(map[string]string{"mod1": "mod1_cards", "mod2": "mod2_cards"})
	clock := func() time.Time { return fixedDay }
	hasher := auth.NewBcryptVerifier(4)

	cardSvc := cards.NewService(f.cards, modules, f.seedDir, nil)
	studySvc := study.NewService(f.cards, srs.NewDefaultService(), modules, nil)
	accountSvc := auth.NewService(f.users, hasher, hasher, f.tokens, nil)
	progressSvc := progress.NewService(f.progress, nil)
	speechSvc, err := speech.NewService(f.synth, f.recognizer,
		speech.Config{AudioDir: filepath.Join(t.TempDir(), "audio"), MaxConcurrency: 2}, nil)
	require.NoError(t, err)

	cardHandler := api.NewCardHandler(cardSvc, clock, nil)
	studyHandler := api.NewStudyHandler(studySvc, clock, nil)
	accountHandler := api.NewAccountHandler(accountSvc, progressSvc, nil)
	speechHandler := api.NewSpeechHandler(speechSvc, nil)
	authMiddleware := middleware.NewAuthMiddleware(f.tokens)

	r := chi.NewRouter()
	r.Use(middleware.Trace(nil))
	r.Route("/api/flashcard/{module}", func(r chi.Router) {
		r.Get("/cards", cardHandler.ListCards)
		r.Post("/cards", cardHandler.CreateCard)
		r.Get("/cards/{cardID}", cardHandler.GetCard)
		r.Put("/cards/{cardID}", cardHandler.UpdateCard)
		r.Delete("/cards/{cardID}", cardHandler.DeleteCard)
		r.Post("/reset", cardHandler.ResetModule)
		r.Post("/import", cardHandler.ImportCards)
		r.Get("/srs/today", studyHandler.Today)
		r.Post("/srs/learn/{cardID}", studyHandler.Learn)
		r.Post("/srs/use/{cardID}", studyHandler.Use)
	})
	r.Route("/api/hsk", func(r chi.Router) {
		r.Post("/register", accountHandler.Register)
		r.Post("/login", accountHandler.Login)
		r.Get("/tts", speechHandler.WordAudio)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Get("/user_data", accountHandler.UserData)
			r.Post("/progress", accountHandler.SaveProgress)
			r.Post("/mastery", accountHandler.SaveMastery)
		})
	})
	r.Route("/api/tts", func(r chi.Router) {
		r.Post("/split-text", speechHandler.SplitText)
		r.Post("/generate-single-audio", speechHandler.GenerateSingleAudio)
		r.Post("/generate-full-audio", speechHandler.GenerateFullAudio)
		r.Post("/ocr-image", speechHandler.RecognizeImage)
		r.Get("/voices", speechHandler.Voices)
		r.Get("/audio/{filename}", speechHandler.ServeAudio)
	})
	f.handler = r
	return f
}

// do sends a request with an optional JSON body and returns the recorder.
func (f *fixture) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func seedCard(f *fixture, module, id string, state domain.SRSState, content string) {
	f.cards.Seed(domain.Card{
		ID:       id,
		Module:   module,
		Title:    domain.TitleFromContent(json.RawMessage(content)),
		Content:  json.RawMessage(content),
		SRSState: state,
	})
}
