package game

import (
	"fmt"
	"os"
	"strings"

	"magyarkaland/internal/models"
)

// RecapFilename is the default name for the exported glossary.
const RecapFilename = "hungarian_rpg_recap.csv"

const recapHeader = "Word,Root,RootMeaning,Suffix,SuffixMeaning,SuffixFunction,TimesEncountered"

// RecapCSV renders the glossary as Anki-friendly CSV: one row per
// (word, suffix) pair, meaning and function columns always quoted, and
// a single N/A row for a word without suffixes.
func RecapCSV(words []models.EncounteredWord) string {
	var b strings.Builder
	b.WriteString(recapHeader + "\r\n")

	for _, item := range words {
		if len(item.Breakdown.Suffixes) == 0 {
			fmt.Fprintf(&b, "%s,%s,%s,N/A,N/A,N/A,%d\r\n",
				item.Word, item.Breakdown.Root.Text, quote(item.Breakdown.Root.Meaning), item.Count)
			continue
		}
		for _, suffix := range item.Breakdown.Suffixes {
			fmt.Fprintf(&b, "%s,%s,%s,%s,%s,%s,%d\r\n",
				item.Word, item.Breakdown.Root.Text, quote(item.Breakdown.Root.Meaning),
				suffix.Text, quote(suffix.Meaning), quote(suffix.Function), item.Count)
		}
	}
	return b.String()
}

// ExportRecap writes the glossary CSV to path.
func ExportRecap(path string, words []models.EncounteredWord) error {
	if err := os.WriteFile(path, []byte(RecapCSV(words)), 0644); err != nil {
		return fmt.Errorf("writing recap: %w", err)
	}
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
