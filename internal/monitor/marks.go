package monitor

import (
	"bufio"
	"log/slog"
	"os"
	"strings"
)

// DefaultMarks is the mark set used when no mark file is configured.
var DefaultMarks = []string{"#"}

// ambiguousMarks are symbols that commonly occur in ordinary unmarked chat.
// Configuring one of them as a mark is allowed but gets a warning.
var ambiguousMarks = []string{"@", "。", "？", "！", "，", ".", "?", "!", ",", "[", "]"}

// LoadMarks reads the operator-configured chat mark list from the given
// file, one mark per line. A missing file falls back to DefaultMarks with a
// warning. Marks colliding with symbols common in unmarked chat produce a
// warning per mark; they are advisory, never rejected.
func LoadMarks(path string, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("chat mark file does not exist, using the default mark",
			slog.String("path", path))
		return DefaultMarks
	}
	defer f.Close()

	var marks []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		mark := strings.TrimSuffix(sc.Text(), "\n")
		if mark == "" {
			continue
		}
		marks = append(marks, mark)
	}
	if err := sc.Err(); err != nil {
		logger.Warn("failed to read chat mark file, using the default mark",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return DefaultMarks
	}
	if len(marks) == 0 {
		logger.Warn("chat mark file is empty, using the default mark",
			slog.String("path", path))
		return DefaultMarks
	}

	for _, mark := range marks {
		for _, warn := range ambiguousMarks {
			if mark == warn {
				logger.Warn("mark is a symbol that might appear in a normal unmarked message and may cause confusion",
					slog.String("mark", mark))
			}
		}
	}
	logger.Info("chat marks loaded", slog.Int("count", len(marks)))
	return marks
}
