// Command helix-redact runs the redaction and extraction pipeline over notes from a file or
// stdin, one note per line, and prints one processed record per line. With -publish the notes
// are sent to the broker instead
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"helix/internal/adapters/classifier"
	"helix/internal/adapters/queue/amqp"
	"helix/internal/core/redact"
	"helix/internal/platform/config"
	"helix/internal/platform/logger"
	records "helix/internal/services/records/domain"
)

func main() {
	var (
		fIn        = flag.String("in", "", "input file (default stdin)")
		fAveraging = flag.String("averaging", "", "mean | pairwise | length_weighted")
		fLexicon   = flag.String("lexicon", "", "dictionary override (yaml)")
		fPublish   = flag.Bool("publish", false, "publish raw notes to the broker instead of printing records")
	)
	flag.Parse()

	if *fAveraging != "" {
		_ = os.Setenv("EXTRACT_AVERAGING", *fAveraging)
	}
	if *fLexicon != "" {
		_ = os.Setenv("EXTRACT_LEXICON_PATH", *fLexicon)
	}

	l := logger.Get()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var in io.Reader = os.Stdin
	if *fIn != "" {
		f, err := os.Open(*fIn)
		if err != nil {
			l.Fatal().Err(err).Str("path", *fIn).Msg("open input")
		}
		defer f.Close()
		in = f
	}

	root := config.New()
	var err error
	if *fPublish {
		err = publish(ctx, root, in)
	} else {
		err = process(ctx, root, in, os.Stdout)
	}
	if err != nil {
		l.Fatal().Err(err).Msg("helix-redact failed")
	}
}

func process(ctx context.Context, cfg config.Conf, in io.Reader, out io.Writer) error {
	o := classifier.FromConfig(cfg)
	o.Kind = classifier.KindLexicon
	x, err := classifier.NewExtractor(o)
	if err != nil {
		return err
	}
	rd := redact.New()
	enc := json.NewEncoder(out)

	return eachLine(in, func(note string) error {
		masked := rd.Deidentify(note)
		es, err := x.Extract(ctx, masked)
		if err != nil {
			return err
		}
		return enc.Encode(records.NewRecord(now(), masked, es).Normalized())
	})
}

func publish(ctx context.Context, cfg config.Conf, in io.Reader) error {
	ic := cfg.Prefix("INGEST_")
	p, err := amqp.NewPublisher(ctx, amqp.Options{
		URL:     ic.MayString("AMQP_URL", ""),
		Queue:   ic.MayString("QUEUE", ""),
		Durable: ic.MayBool("DURABLE", false),
	})
	if err != nil {
		return err
	}
	defer p.Close()

	n := 0
	err = eachLine(in, func(note string) error {
		n++
		return p.PublishNote(ctx, note, now())
	})
	logger.Get().Info().Int("published", n).Msg("notes published")
	return err
}

func eachLine(in io.Reader, fn func(string) error) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func now() float64 { return float64(time.Now().UnixNano()) / 1e9 }
