package domain

import (
	"errors"
	"strings"
	"time"
)

type Language string

const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangCpp        Language = "cpp"
	LangJava       Language = "java"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

// ParseLanguage maps client language names onto the supported set.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "python", "py", "python3":
		return LangPython, nil
	case "javascript", "js", "node":
		return LangJavaScript, nil
	case "cpp", "c++", "cxx":
		return LangCpp, nil
	case "java":
		return LangJava, nil
	}
	return "", ErrUnsupportedLanguage
}

// ExecRequest is a single run_code submission. Not persisted.
type ExecRequest struct {
	Code     string
	Language string
	Room     RoomID
}

// ExecResult is what gets emitted to the room.
type ExecResult struct {
	Output   string
	Failed   bool
	TimedOut bool
	Duration time.Duration
}
