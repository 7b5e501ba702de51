// Package prompt assembles the text sent to a generation provider from the
// pieces a client submits with a question.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rhuss/askgate/pkg/textclean"
)

// ErrEmptyInput is returned when a request has no question, HTML, or image.
var ErrEmptyInput = errors.New("no question, html, or image provided")

// Image is a decoded inline image.
type Image struct {
	MIMEType string
	Data     []byte
}

// Input holds everything a client may send with one question.
type Input struct {
	Question    string
	Article     string
	HTML        string
	Instruction string
	Images      []Image
}

// Prompt is the assembled request text.
type Prompt struct {
	System string
	User   string
	Images []Image
}

// Builder turns an Input into a Prompt.
type Builder struct {
	// System is sent as the system instruction on every request.
	System string

	// MaxInputRunes caps the article and HTML text. Zero means no cap.
	MaxInputRunes int
}

// Build assembles the prompt. Sections appear in the order article,
// content, question, instruction, separated by a blank line.
func (b *Builder) Build(in Input) (Prompt, error) {
	question := strings.TrimSpace(in.Question)
	htmlText := strings.TrimSpace(in.HTML)
	if question == "" && htmlText == "" && len(in.Images) == 0 {
		return Prompt{}, ErrEmptyInput
	}

	var sections []string

	if article := strings.TrimSpace(in.Article); article != "" {
		text, err := b.plain(article)
		if err != nil {
			return Prompt{}, fmt.Errorf("article: %w", err)
		}
		if text != "" {
			sections = append(sections, "Article:\n"+text)
		}
	}

	hasContent := false
	if htmlText != "" {
		text, err := b.plain(htmlText)
		if err != nil {
			return Prompt{}, fmt.Errorf("html: %w", err)
		}
		if text != "" {
			sections = append(sections, "Content:\n"+text)
			hasContent = true
		}
	}

	// Markup with no visible text does not count as content.
	if question == "" && !hasContent && len(in.Images) == 0 {
		return Prompt{}, ErrEmptyInput
	}

	if question != "" {
		sections = append(sections, "Question:\n"+question)
	}

	if instr := strings.TrimSpace(in.Instruction); instr != "" {
		sections = append(sections, instr)
	}

	// An image alone still needs some text for most providers.
	if len(sections) == 0 {
		sections = append(sections, "Answer the question shown in the image.")
	}

	return Prompt{
		System: b.System,
		User:   strings.Join(sections, "\n\n"),
		Images: in.Images,
	}, nil
}

func (b *Builder) plain(s string) (string, error) {
	if textclean.LooksLikeHTML(s) {
		text, err := textclean.HTMLToText(s)
		if err != nil {
			return "", err
		}
		s = text
	}
	return textclean.TruncateRunes(s, b.MaxInputRunes), nil
}
