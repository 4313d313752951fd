package api

import (
	"encoding/json"
	"time"

	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/service/speech"
)

// Account requests and responses

// RegisterRequest is the body of POST /api/hsk/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the body of POST /api/hsk/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// StatusResponse is the plain acknowledgement used by the HSK routes.
type StatusResponse struct {
	Status   string `json:"status"`
	Username string `json:"username,omitempty"`
}

// LoginResponse carries the token for later authenticated requests.
type LoginResponse struct {
	Status    string `json:"status"`
	Username  string `json:"username"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// SaveProgressRequest is the body of POST /api/hsk/progress.
type SaveProgressRequest struct {
	Level     int `json:"level"     validate:"gte=1"`
	QuizCount int `json:"quizCount" validate:"gte=1"`
	Index     int `json:"index"     validate:"gte=0"`
}

// SaveMasteryRequest is the body of POST /api/hsk/mastery.
type SaveMasteryRequest struct {
	Char   string          `json:"char"   validate:"required"`
	Record json.RawMessage `json:"record" validate:"required"`
}

// ProgressResponse is a learner's course position.
type ProgressResponse struct {
	Level        int `json:"level"`
	CurrentIndex int `json:"current_index"`
	QuizCount    int `json:"quiz_count"`
}

// UserDataResponse is the body of GET /api/hsk/user_data.
type UserDataResponse struct {
	Progress ProgressResponse           `json:"progress"`
	Mastery  map[string]json.RawMessage `json:"mastery"`
}

// Card requests and responses

// ImportRequest is the body of POST /{module}/import. Cards must be an array.
type ImportRequest struct {
	Cards json.RawMessage `json:"cards"`
}

// CardResponse wraps a single card.
type CardResponse struct {
	Success bool           `json:"success"`
	Card    map[string]any `json:"card"`
}

// CountResponse reports how many cards a bulk operation stored.
type CountResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   int    `json:"count"`
}

// SuccessResponse is an empty acknowledgement.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// StudyCardResponse is one entry of today's list.
type StudyCardResponse struct {
	CardID              string  `json:"card_id"`
	Title               string  `json:"title"`
	PScore              float64 `json:"p_score"`
	Tier                string  `json:"tier"`
	Interval            int     `json:"interval"`
	LastReviewDate      string  `json:"last_review_date"`
	LastApplicationDate string  `json:"last_application_date"`
	IsCore              bool    `json:"is_core"`
	ReferenceCount      int     `json:"reference_count"`
}

// TodayResponse is the body of GET /{module}/srs/today.
type TodayResponse struct {
	Success bool                `json:"success"`
	Date    string              `json:"date"`
	Count   int                 `json:"count"`
	Forced  int                 `json:"forced"`
	Cards   []StudyCardResponse `json:"cards"`
}

// StateResponse is a card's scheduling state after a study event.
type StateResponse struct {
	Interval            int    `json:"interval"`
	LastReviewDate      string `json:"last_review_date"`
	LastApplicationDate string `json:"last_application_date"`
	ReferenceCount      int    `json:"reference_count"`
}

// StudyEventResponse is the body of the learn and use routes.
type StudyEventResponse struct {
	Success  bool          `json:"success"`
	Type     string        `json:"type"`
	NewState StateResponse `json:"new_state"`
}

// Speech requests and responses

// SplitTextRequest is the body of POST /api/tts/split-text.
type SplitTextRequest struct {
	Text string `json:"text"`
}

// SplitTextResponse lists the sentences of a text.
type SplitTextResponse struct {
	Success   bool     `json:"success"`
	Sentences []string `json:"sentences"`
	Count     int      `json:"count"`
}

// SingleAudioRequest is the body of POST /api/tts/generate-single-audio.
type SingleAudioRequest struct {
	Sentence string `json:"sentence"`
	Voice    string `json:"voice"`
	Speed    int    `json:"speed"`
}

// FullAudioRequest is the body of POST /api/tts/generate-full-audio.
type FullAudioRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
	Speed int    `json:"speed"`
}

// AudioResponse points at a generated audio file.
type AudioResponse struct {
	Success   bool     `json:"success"`
	AudioPath string   `json:"audio_path"`
	Filename  string   `json:"filename"`
	Sentences []string `json:"sentences,omitempty"`
}

// OCRResponse is the text recognized in an uploaded image.
type OCRResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
}

// VoicesResponse lists the selectable narrators.
type VoicesResponse struct {
	Success bool           `json:"success"`
	Default string         `json:"default"`
	Voices  []speech.Voice `json:"voices"`
}

// cardJSON flattens a card into its content object plus the cardid and the
// scheduling fields.
func cardJSON(card *domain.Card) map[string]any {
	out := make(map[string]any)
	var content map[string]json.RawMessage
	if err := json.Unmarshal(card.Content, &content); err == nil {
		for k, v := range content {
			out[k] = v
		}
	}
	out["cardid"] = card.ID
	out["ci"] = card.Interval
	out["lrd"] = domain.FormatDate(card.LastReviewDate)
	out["lad"] = domain.FormatDate(card.LastApplicationDate)
	out["is_core"] = card.IsCore
	out["rc"] = card.ReferenceCount
	return out
}

func stateResponse(state *domain.SRSState) StateResponse {
	return StateResponse{
		Interval:            state.Interval,
		LastReviewDate:      domain.FormatDate(state.LastReviewDate),
		LastApplicationDate: domain.FormatDate(state.LastApplicationDate),
		ReferenceCount:      state.ReferenceCount,
	}
}

func studyCardResponse(item domain.StudyItem) StudyCardResponse {
	tier := "ranked"
	if item.Forced {
		tier = "forced"
	}
	return StudyCardResponse{
		CardID:              item.Card.ID,
		Title:               item.Card.Title,
		PScore:              item.Score,
		Tier:                tier,
		Interval:            item.Card.Interval,
		LastReviewDate:      domain.FormatDate(item.Card.LastReviewDate),
		LastApplicationDate: domain.FormatDate(item.Card.LastApplicationDate),
		IsCore:              item.Card.IsCore,
		ReferenceCount:      item.Card.ReferenceCount,
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
