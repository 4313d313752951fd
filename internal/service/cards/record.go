package cards

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lingocards/lingo-api/internal/domain"
)

// Keys with special meaning in a card record. Everything else is content.
const (
	keyCardID         = "cardid"
	keyInterval       = "ci"
	keyLastReview     = "lrd"
	keyLastApplied    = "lad"
	keyIsCore         = "is_core"
	keyReferenceCount = "rc"
)

var stateKeys = []string{keyInterval, keyLastReview, keyLastApplied, keyIsCore, keyReferenceCount}

// record is a client or file supplied card split into its id, its content
// and any scheduling fields it carries.
type record struct {
	id      string
	content json.RawMessage
	fields  map[string]json.RawMessage
}

func parseRecord(raw json.RawMessage) (*record, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidRecord)
	}

	rec := &record{fields: make(map[string]json.RawMessage)}

	if v, ok := obj[keyCardID]; ok {
		id, err := scalarString(v)
		if err != nil {
			return nil, fmt.Errorf("%w: cardid: %v", ErrInvalidRecord, err)
		}
		rec.id = strings.TrimSpace(id)
		delete(obj, keyCardID)
	}
	for _, key := range stateKeys {
		if v, ok := obj[key]; ok {
			rec.fields[key] = v
			delete(obj, key)
		}
	}

	content, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	rec.content = content
	return rec, nil
}

// state applies the record's scheduling fields on top of base.
func (r *record) state(base domain.SRSState) (domain.SRSState, error) {
	state := base
	for key, raw := range r.fields {
		// null or a blank cell leaves the default in place
		if blank(raw) {
			continue
		}
		var err error
		switch key {
		case keyInterval:
			state.Interval, err = scalarInt(raw)
		case keyReferenceCount:
			state.ReferenceCount, err = scalarInt(raw)
		case keyLastReview:
			state.LastReviewDate, err = scalarDate(raw)
		case keyLastApplied:
			state.LastApplicationDate, err = scalarDate(raw)
		case keyIsCore:
			state.IsCore, err = scalarBool(raw)
		}
		if err != nil {
			return domain.SRSState{}, fmt.Errorf("%w: %s: %v", ErrInvalidRecord, key, err)
		}
	}
	if err := state.Validate(); err != nil {
		return domain.SRSState{}, err
	}
	return state, nil
}

// Spreadsheets and YAML files carry numbers and booleans as text, so the
// scalar helpers accept either form.

func scalarString(raw json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unexpected %T", v)
	}
}

func blank(raw json.RawMessage) bool {
	s, err := scalarString(raw)
	return err == nil && strings.TrimSpace(s) == ""
}

func scalarInt(raw json.RawMessage) (int, error) {
	s, err := scalarString(raw)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("%v is not a whole number", f)
	}
	return int(f), nil
}

func scalarBool(raw json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	s, err := scalarString(raw)
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(strings.TrimSpace(s))
}

func scalarDate(raw json.RawMessage) (time.Time, error) {
	s, err := scalarString(raw)
	if err != nil {
		return time.Time{}, err
	}
	s = strings.TrimSpace(s)
	if t, err := domain.ParseDate(s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a YYYY-MM-DD date", s)
	}
	return domain.DateOf(t), nil
}
