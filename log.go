package coroo

import "github.com/sirupsen/logrus"

// log is the package-wide logger for two kinds of condition: best-effort
// warnings (mmap/guard-page setup failures) and fatal aborts (stack
// direction indeterminate, page size not a power of two). Returned-status
// errors (poll/bufio readiness bits) never go through here — they are
// part of the normal return value.
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func logWarn(format string, args ...any) {
	log.Warnf(format, args...)
}

func logFatal(format string, args ...any) {
	log.Fatalf(format, args...)
}
