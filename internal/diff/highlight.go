package diff

import (
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlight writes raw to w with ANSI colouring for a unified diff. When the
// diff lexer or formatter is unavailable the text is written unchanged.
func Highlight(w io.Writer, raw string, styleName string) error {
	lexer := lexers.Get("diff")
	if lexer == nil {
		_, err := io.WriteString(w, raw)
		return err
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, raw)
	if err != nil {
		_, werr := io.WriteString(w, raw)
		return werr
	}
	return formatter.Format(w, style, iterator)
}
