package bot

import (
	"fmt"
	"html"
	"strings"

	"github.com/example/vocala/internal/vocabulary"
)

// formatWordCard renders one word card as Telegram HTML
func formatWordCard(card vocabulary.WordCard) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("<b>%s</b> <i>(%s)</i>\n", html.EscapeString(card.Word.Headword), html.EscapeString(card.Word.PartOfSpeech)))
	sb.WriteString(fmt.Sprintf("➡️ <b>%s</b>\n", html.EscapeString(card.Word.Translation)))
	if card.Word.Definition != "" {
		sb.WriteString(fmt.Sprintf("<i>%s</i>\n", html.EscapeString(card.Word.Definition)))
	}

	for _, ex := range card.Examples {
		sb.WriteString(fmt.Sprintf("\n✏️ %s", html.EscapeString(ex.Sentence)))
		if ex.Translation != "" {
			sb.WriteString(fmt.Sprintf("\n    %s", html.EscapeString(ex.Translation)))
		}
	}
	return sb.String()
}

// formatBatchSection renders a titled list of word cards for the daily
// delivery message
func formatBatchSection(title string, cards []vocabulary.WordCard) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>%s</b>\n", html.EscapeString(title)))

	for i, card := range cards {
		sb.WriteString(fmt.Sprintf("\n<b>%d. %s</b> <i>(%s)</i> ➡️ %s\n",
			i+1,
			html.EscapeString(card.Word.Headword),
			html.EscapeString(card.Word.PartOfSpeech),
			html.EscapeString(card.Word.Translation)))
		if card.Word.Definition != "" {
			sb.WriteString(fmt.Sprintf("<i>%s</i>\n", html.EscapeString(card.Word.Definition)))
		}
		if len(card.Examples) > 0 {
			sb.WriteString(fmt.Sprintf("✏️ %s\n", html.EscapeString(card.Examples[0].Sentence)))
		}
	}
	return sb.String()
}
