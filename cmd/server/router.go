package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lingocards/lingo-api/internal/api"
	apiMiddleware "github.com/lingocards/lingo-api/internal/api/middleware"
	"github.com/lingocards/lingo-api/internal/api/shared"
)

// setupRouter registers every route on a chi router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace(app.logger))

	today := api.DailyClock(app.config.SRS.Location())
	cardHandler := api.NewCardHandler(app.cardService, today, app.logger)
	studyHandler := api.NewStudyHandler(app.studyService, today, app.logger)
	accountHandler := api.NewAccountHandler(app.accountService, app.progressService, app.logger)
	speechHandler := api.NewSpeechHandler(app.speechService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Route("/flashcard/{module}", func(r chi.Router) {
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

		r.Route("/hsk", func(r chi.Router) {
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

		r.Route("/tts", func(r chi.Router) {
			r.Use(middleware.Timeout(2 * time.Minute))
			r.Post("/split-text", speechHandler.SplitText)
			r.Post("/generate-single-audio", speechHandler.GenerateSingleAudio)
			r.Post("/generate-full-audio", speechHandler.GenerateFullAudio)
			r.Post("/ocr-image", speechHandler.RecognizeImage)
			r.Get("/voices", speechHandler.Voices)
			r.Get("/audio/{filename}", speechHandler.ServeAudio)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
