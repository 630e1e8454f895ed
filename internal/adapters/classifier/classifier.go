// Package classifier selects the extract.Classifier implementation from config
package classifier

import (
	"time"

	"helix/internal/adapters/classifier/inference"
	"helix/internal/adapters/classifier/lexicon"
	"helix/internal/core/extract"
	"helix/internal/platform/config"
	perr "helix/internal/platform/errors"
)

// Kinds of classifier
const (
	KindLexicon   = "lexicon"
	KindInference = "inference"
)

// Options pick and configure a classifier and the merge averaging
type Options struct {
	Kind        string
	Averaging   extract.Averaging
	LexiconPath string
	Inference   inference.Options
}

// FromConfig reads EXTRACT_ settings
func FromConfig(cfg config.Conf) Options {
	ec := cfg.Prefix("EXTRACT_")
	avg, _ := extract.ParseAveraging(ec.MayEnum("AVERAGING", extract.Mean.String(), extract.AveragingNames()...))
	return Options{
		Kind:        ec.MayEnum("CLASSIFIER", KindLexicon, KindLexicon, KindInference),
		Averaging:   avg,
		LexiconPath: ec.MayString("LEXICON_PATH", ""),
		Inference: inference.Options{
			URL:        ec.MayString("INFERENCE_URL", ""),
			Token:      ec.MayString("INFERENCE_TOKEN", ""),
			Timeout:    ec.MayDuration("INFERENCE_TIMEOUT", 30*time.Second),
			MaxRetries: ec.MayInt("INFERENCE_MAX_RETRIES", 0),
		},
	}
}

// New builds the configured classifier
func New(o Options) (extract.Classifier, error) {
	switch o.Kind {
	case "", KindLexicon:
		return lexicon.Open(o.LexiconPath)
	case KindInference:
		if o.Inference.URL == "" {
			return nil, perr.InvalidArgf("inference classifier needs EXTRACT_INFERENCE_URL")
		}
		return inference.New(o.Inference), nil
	default:
		return nil, perr.InvalidArgf("unknown classifier %q", o.Kind)
	}
}

// NewExtractor builds the classifier and wraps it in an Extractor
func NewExtractor(o Options) (*extract.Extractor, error) {
	clf, err := New(o)
	if err != nil {
		return nil, err
	}
	return extract.New(clf, extract.WithAveraging(o.Averaging)), nil
}
