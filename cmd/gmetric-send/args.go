package main

import (
	"errors"
	"time"

	"github.com/jessevdk/go-flags"
)

type commandOptions struct {
	Host       string        `short:"H" long:"host"        default:"localhost" description:"Destination server name or ip"          `
	Port       uint16        `short:"p" long:"port"        default:"8125"      description:"Destination server port"                `
	Counter    string        `short:"c" long:"counter"                         description:"Counter name (required, or timer)"      `
	Timer      string        `short:"t" long:"timer"                           description:"Timer name (required, or counter)"      `
	Value      int64         `short:"v" long:"value"       default:"1"         description:"Value"                                  `
	SampleRate float64       `short:"s" long:"sample-rate" default:"1"         description:"Sample rate in (0,1]"                   `
	Repeat     uint          `short:"n" long:"repeat"      default:"1"         description:"Number of packets to send, 0 sends forever"`
	Interval   time.Duration `short:"i" long:"interval"    default:"0s"        description:"Delay between packets"                  `
}

var errNameRequired = errors.New("exactly one of counter or timer is required")

// parseArgs parses args into the options. Help was requested if the error is a flags.ErrHelp flags.Error.
func parseArgs(args []string) (*flags.Parser, commandOptions, error) {
	var opts commandOptions
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.LongDescription = "" + // because gofmt
		"Sends a single counter or timer value to a metrics daemon over UDP.\n" +
		"With --repeat the packet is sent many times, which is useful for load testing."

	positional, err := parser.ParseArgs(args)
	if err != nil {
		return parser, opts, err
	}
	if len(positional) != 0 {
		return parser, opts, errors.New("no positional arguments allowed")
	}
	if (opts.Counter == "") == (opts.Timer == "") {
		return parser, opts, errNameRequired
	}
	if opts.SampleRate <= 0 || opts.SampleRate > 1 {
		return parser, opts, errors.New("sample-rate must be in (0,1]")
	}
	return parser, opts, nil
}

// isHelp is a helper to test the error from ParseArgs() to
// determine if the help message was requested. It is safe to
// call without first checking that error is nil.
func isHelp(err error) bool {
	flagError, ok := err.(*flags.Error)
	return ok && flagError.Type == flags.ErrHelp
}
