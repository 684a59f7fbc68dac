package log

import (
	"io"
	"log"
	"strings"
)

// AllowDebug включает вывод сообщений с префиксом [DEBUG].
var AllowDebug = false

func Printf(format string, v ...any) {
	if !allowed(format) {
		return
	}
	log.Printf(format, v...)
}

func Fatalf(format string, v ...any) {
	if !allowed(format) {
		return
	}
	log.Fatalf(format, v...)
}

// SetOutput перенаправляет все сообщения в w (используется в тестах).
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Level возвращает уровень сообщения по его префиксу: DEBUG, INFO, WARN, ERROR.
// Для сообщений без префикса возвращается INFO.
func Level(format string) string {
	if !strings.HasPrefix(format, "[") {
		return "INFO"
	}
	end := strings.IndexByte(format, ']')
	if end < 0 {
		return "INFO"
	}
	return format[1:end]
}

func allowed(s string) bool {
	if AllowDebug {
		return true
	}
	return Level(s) != "DEBUG"
}
