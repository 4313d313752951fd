package speech

import (
	"strconv"
	"strings"
)

// Voice is a selectable narrator.
type Voice struct {
	Name   string `json:"name"`
	ID     string `json:"id"`
	Gender string `json:"gender"`
}

// Default narrators: the reading tool uses a female voice, HSK word audio a male one.
const (
	DefaultVoice    = "Mandarin Female (Xiaoyi)"
	DefaultHSKVoice = "Mandarin Male (Yunjian)"
)

// Speed limits. Reading tool requests outside the range are rejected, HSK
// requests are clamped to the wider range.
const (
	MinSpeed    = -50
	MaxSpeed    = 100
	MinHSKSpeed = -100
	MaxHSKSpeed = 100
)

var voices = []Voice{
	{Name: "Mandarin Female (Xiaoyi)", ID: "zh-CN-XiaoyiNeural", Gender: "female"},
	{Name: "Mandarin Female (Xiaoxiao)", ID: "zh-CN-XiaoxiaoNeural", Gender: "female"},
	{Name: "Mandarin Male (Yunxi)", ID: "zh-CN-YunxiNeural", Gender: "male"},
	{Name: "Mandarin Male (Yunjian)", ID: "zh-CN-YunjianNeural", Gender: "male"},
	{Name: "Mandarin Male (Yunxia)", ID: "zh-CN-YunxiaNeural", Gender: "male"},
	{Name: "Mandarin Male (Yunyang)", ID: "zh-CN-YunyangNeural", Gender: "male"},
}

// Voices returns the voice catalogue in display order.
func Voices() []Voice {
	return append([]Voice(nil), voices...)
}

// ResolveVoice returns the voice with the given display name, or the
// fallback voice when the name is unknown.
func ResolveVoice(name, fallback string) Voice {
	for _, v := range voices {
		if v.Name == name {
			return v
		}
	}
	for _, v := range voices {
		if v.Name == fallback {
			return v
		}
	}
	return voices[0]
}

// ParseHSKSpeed reads a speed query value, clamping it to
// [MinHSKSpeed, MaxHSKSpeed]. Unparsable values mean the natural rate.
func ParseHSKSpeed(raw string) int {
	speed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return max(MinHSKSpeed, min(MaxHSKSpeed, speed))
}
