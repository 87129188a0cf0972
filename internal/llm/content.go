package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ContentKind tags which shape a Content holds.
type ContentKind int

const (
	ContentText ContentKind = iota
	ContentBlocks
)

// Block is one typed content block.
type Block struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text"`
}

// Content is either a plain string or a list of blocks.
type Content struct {
	Kind   ContentKind
	String string
	Blocks []Block
}

// ErrEmptyContent is returned when a block list carries no blocks.
var ErrEmptyContent = errors.New("response content has no blocks")

// TextContent wraps a plain string.
func TextContent(s string) Content {
	return Content{Kind: ContentText, String: s}
}

// BlockContent wraps a block list.
func BlockContent(blocks ...Block) Content {
	return Content{Kind: ContentBlocks, Blocks: blocks}
}

// Text returns the string, or the first block's text.
func (c Content) Text() (string, error) {
	if c.Kind == ContentText {
		return c.String, nil
	}
	if len(c.Blocks) == 0 {
		return "", ErrEmptyContent
	}
	return c.Blocks[0].Text, nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.Kind == ContentBlocks {
		blocks := c.Blocks
		if blocks == nil {
			blocks = []Block{}
		}
		return json.Marshal(blocks)
	}
	return json.Marshal(c.String)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return errors.New("empty content")
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*c = TextContent(s)
		return nil
	case '[':
		var blocks []Block
		if err := json.Unmarshal(trimmed, &blocks); err != nil {
			return err
		}
		*c = BlockContent(blocks...)
		return nil
	default:
		return fmt.Errorf("content must be a string or an array of blocks, got %q", trimmed[:1])
	}
}
