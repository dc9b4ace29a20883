package cli

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/zoobzio/objgraph"
	bsoncodec "github.com/zoobzio/objgraph/bson"
	jsoncodec "github.com/zoobzio/objgraph/json"
	msgpackcodec "github.com/zoobzio/objgraph/msgpack"
	xmlcodec "github.com/zoobzio/objgraph/xml"
	yamlcodec "github.com/zoobzio/objgraph/yaml"
)

const (
	formatJSON    = "json"
	formatYAML    = "yaml"
	formatMsgpack = "msgpack"
	formatBSON    = "bson"
	formatXML     = "xml"
	formatDOT     = "dot"
	formatSVG     = "svg"
)

var formats = []string{formatJSON, formatYAML, formatMsgpack, formatBSON, formatXML, formatDOT, formatSVG}

func validateFormat(f string) error {
	if !slices.Contains(formats, f) {
		return fmt.Errorf("unknown format %q (want one of %s)", f, strings.Join(formats, ", "))
	}
	return nil
}

// codecFor returns the node codec for a format. DOT and SVG are diagrams,
// not codecs, and have no decoder.
func codecFor(format, indent string) (objgraph.Codec, error) {
	switch format {
	case formatJSON:
		if indent != "" {
			return jsoncodec.NewIndented(indent), nil
		}
		return jsoncodec.New(), nil
	case formatYAML:
		return yamlcodec.New(), nil
	case formatMsgpack:
		return msgpackcodec.New(), nil
	case formatBSON:
		return bsoncodec.New(), nil
	case formatXML:
		return xmlcodec.New(), nil
	}
	return nil, fmt.Errorf("format %q has no codec", format)
}

// formatFromPath guesses a codec format from a file extension.
func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	case ".msgpack", ".mp":
		return formatMsgpack
	case ".bson":
		return formatBSON
	case ".xml":
		return formatXML
	}
	return formatJSON
}
