package api_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/lingocards/lingo-api/internal/api"
	"github.com/lingocards/lingo-api/internal/api/shared"
	"github.com/lingocards/lingo-api/internal/service/speech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeechHandlerSplitText(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/tts/split-text", map[string]string{"text": "你好。今天天气很好！我们走吧"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode[api.SplitTextResponse](t, rr)
	assert.Equal(t, []string{"你好。", "今天天气很好！", "我们走吧"}, resp.Sentences)
	assert.Equal(t, 3, resp.Count)

	rr = f.do(t, http.MethodPost, "/api/tts/split-text", map[string]string{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Text cannot be empty", decode[shared.ErrorResponse](t, rr).Error)
}

func TestSpeechHandlerAudio(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	t.Run("single sentence is served from the audio route", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/tts/generate-single-audio",
			map[string]any{"sentence": "你好。", "voice": "Mandarin Male (Yunxi)", "speed": 10})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		resp := decode[api.AudioResponse](t, rr)
		assert.Equal(t, api.AudioRoute+resp.Filename, resp.AudioPath)

		audio := f.do(t, http.MethodGet, resp.AudioPath, nil)
		require.Equal(t, http.StatusOK, audio.Code)
		assert.Equal(t, "audio/wav", audio.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(audio.Body.Bytes(), []byte("RIFF")))
	})

	t.Run("full text returns its sentences", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/tts/generate-full-audio",
			map[string]any{"text": "一。二。三。", "speed": 0})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		resp := decode[api.AudioResponse](t, rr)
		assert.Equal(t, []string{"一。", "二。", "三。"}, resp.Sentences)
		assert.NotEmpty(t, resp.Filename)
	})

	t.Run("speed out of range", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/tts/generate-single-audio",
			map[string]any{"sentence": "你好", "speed": -80})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("provider failure does not leak", func(t *testing.T) {
		g := newFixture(t)
		g.synth.SynthesizeFn = func(context.Context, string, string, int) ([]byte, error) {
			return nil, assert.AnError
		}
		rr := g.do(t, http.MethodPost, "/api/tts/generate-single-audio", map[string]any{"sentence": "你好"})
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "Failed to generate audio", decode[shared.ErrorResponse](t, rr).Error)
	})

	t.Run("missing audio file", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/tts/audio/sentence_0000.wav", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestSpeechHandlerWordAudio(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/api/hsk/tts?text=%E7%88%B1&speed=500", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "audio/wav", rr.Header().Get("Content-Type"))

	calls := f.synth.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, speech.ResolveVoice(speech.DefaultHSKVoice, "").ID, calls[0].VoiceID)
	assert.Equal(t, speech.MaxHSKSpeed, calls[0].Speed)

	rr = f.do(t, http.MethodGet, "/api/hsk/tts", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSpeechHandlerVoices(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/api/tts/voices", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[api.VoicesResponse](t, rr)
	assert.Equal(t, speech.DefaultVoice, resp.Default)
	assert.Len(t, resp.Voices, len(speech.Voices()))
}

func imageUpload(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="page.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/tts/ocr-image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSpeechHandlerRecognizeImage(t *testing.T) {
	t.Parallel()

	t.Run("returns the Chinese text", func(t *testing.T) {
		f := newFixture(t)
		var gotMime string
		f.recognizer.RecognizeFn = func(_ context.Context, _ []byte, mimeType string) (string, error) {
			gotMime = mimeType
			return "Lesson 1\n你好，世界！", nil
		}

		rr := httptest.NewRecorder()
		f.handler.ServeHTTP(rr, imageUpload(t, "image", []byte("png-bytes")))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, "你好，世界！", decode[api.OCRResponse](t, rr).Text)
		assert.Equal(t, "image/png", gotMime)
	})

	t.Run("no Chinese text", func(t *testing.T) {
		f := newFixture(t)
		f.recognizer.Text = "hello world"

		rr := httptest.NewRecorder()
		f.handler.ServeHTTP(rr, imageUpload(t, "image", []byte("png-bytes")))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("missing image field", func(t *testing.T) {
		f := newFixture(t)

		rr := httptest.NewRecorder()
		f.handler.ServeHTTP(rr, imageUpload(t, "file", []byte("png-bytes")))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "No image uploaded", decode[shared.ErrorResponse](t, rr).Error)
	})
}
