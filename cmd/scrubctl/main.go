package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/jessevdk/go-flags"

	"github.com/bryanwahyu/resume-scrubber/pkg/client"
)

type globalOptions struct {
	Server  string `short:"s" long:"server" env:"SCRUBBER_URL" default:"http://localhost:8080" description:"scrubber base URL"`
	APIKey  string `long:"api-key" env:"SCRUBBER_API_KEY" description:"API key sent as bearer token"`
	Verbose bool   `short:"v" long:"verbose" description:"debug logging"`
}

var (
	opts   globalOptions
	logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "scrubctl"})
)

func newClient() *client.Client {
	c := client.New(opts.Server)
	c.APIKey = opts.APIKey
	if opts.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return c
}

type uploadCommand struct {
	Args struct {
		File string `positional-arg-name:"file" required:"yes"`
	} `positional-args:"yes"`
}

func (u *uploadCommand) Execute([]string) error {
	f, err := os.Open(u.Args.File)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Debug("uploading", "file", u.Args.File, "server", opts.Server)
	id, err := newClient().UploadFile(ctx, filepath.Base(u.Args.File), f)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

type scrubCommand struct {
	JobID string `short:"j" long:"job" required:"yes" description:"job id the candidate applies to"`
	Args  struct {
		File string `positional-arg-name:"file" description:"text file, stdin when omitted"`
	} `positional-args:"yes"`
}

func (s *scrubCommand) Execute([]string) error {
	in := os.Stdin
	if s.Args.File != "" && s.Args.File != "-" {
		f, err := os.Open(s.Args.File)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	text, err := io.ReadAll(in)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Debug("scrubbing", "bytes", len(text), "job", s.JobID)
	c, err := newClient().Scrub(ctx, string(text), s.JobID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "resume scrubber client"

	if _, err := parser.AddCommand("upload", "Upload a resume file",
		"Posts the file to /upload and prints the returned file id.", &uploadCommand{}); err != nil {
		logger.Fatal("register command", "err", err)
	}
	if _, err := parser.AddCommand("scrub", "Scrub resume text",
		"Posts text to /scrub and prints the candidate as JSON.", &scrubCommand{}); err != nil {
		logger.Fatal("register command", "err", err)
	}

	if _, err := parser.Parse(); err != nil {
		var fe *flags.Error
		if errors.As(err, &fe) && fe.Type == flags.ErrHelp {
			os.Exit(0)
		}
		// flags.Default already printed parse errors
		if !errors.As(err, &fe) {
			logger.Error(err)
		}
		os.Exit(1)
	}
}
