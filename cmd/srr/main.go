// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

// srr is the operator CLI for the SRR coordinator: list the
// configurable groups, save them into a snapshot file, and restore a
// snapshot.
//
// Output is plain JSON on stdout so the commands compose in scripts;
// snapshot files are zstd-compressed JSON when the path ends in .zst
// and plain JSON otherwise; both forms are accepted on read.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/stark-dev/fty-srr-mg/lib/bus"
	"github.com/stark-dev/fty-srr-mg/lib/payload"
	"github.com/stark-dev/fty-srr-mg/lib/version"
)

const defaultSocket = "/run/srr/srr-ui.sock"

// envPassphrase lets scripts supply the passphrase without a prompt.
const envPassphrase = "SRR_PASSPHRASE"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() string {
	return `usage: srr <command> [flags]

commands:
  list       list the configurable groups and features
  save       save groups into a snapshot file
  restore    restore a snapshot file
  version    print version information
`
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage())
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "list":
		return runList(args[1:])
	case "save":
		return runSave(args[1:])
	case "restore":
		return runRestore(args[1:])
	case "version":
		fmt.Printf("srr %s\n", version.Info())
		return nil
	case "-h", "--help", "help":
		fmt.Print(usage())
		return nil
	default:
		fmt.Fprint(os.Stderr, usage())
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// commonFlags holds the flags every subcommand shares.
type commonFlags struct {
	socket    string
	timeoutMS int
}

func (c *commonFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&c.socket, "socket", defaultSocket, "coordinator operator socket")
	flags.IntVar(&c.timeoutMS, "timeout", 300000, "request timeout in milliseconds")
}

func (c *commonFlags) timeout() time.Duration {
	return time.Duration(c.timeoutMS/1000) * time.Second
}

// call performs one operator request against the coordinator socket.
func (c *commonFlags) call(subject string, body []byte) (payload.OperatorReply, error) {
	msg := bus.Message{
		Subject:  subject,
		From:     "srr-cli",
		To:       "etn-srr",
		UserData: body,
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout())
	defer cancel()

	replyMsg, err := bus.RequestPath(ctx, c.socket, msg, c.timeout())
	if err != nil {
		return payload.OperatorReply{}, err
	}

	var reply payload.OperatorReply
	if err := json.Unmarshal(replyMsg.UserData, &reply); err != nil {
		return payload.OperatorReply{}, fmt.Errorf("decoding coordinator reply: %w", err)
	}
	return reply, nil
}

func runList(args []string) error {
	flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
	var common commonFlags
	common.register(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}

	reply, err := common.call("list", nil)
	if err != nil {
		return err
	}

	fmt.Println(string(reply.Body))
	return nil
}

func runSave(args []string) error {
	flags := pflag.NewFlagSet("save", pflag.ContinueOnError)
	var common commonFlags
	common.register(flags)
	groups := flags.StringSliceP("group", "g", nil, "group to save (repeatable)")
	pass := flags.String("passphrase", "", "snapshot passphrase (default: $SRR_PASSPHRASE or prompt)")
	output := flags.StringP("output", "o", "", "snapshot file to write (default: stdout, uncompressed)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if len(*groups) == 0 {
		return fmt.Errorf("at least one --group is required")
	}

	secret, err := resolvePassphrase(*pass, false)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload.SaveRequest{
		Passphrase: secret,
		GroupList:  *groups,
	})
	if err != nil {
		return fmt.Errorf("marshaling save request: %w", err)
	}

	reply, err := common.call("save", body)
	if err != nil {
		return err
	}
	if reply.Status != string(payload.StatusSuccess) {
		return fmt.Errorf("save failed (%s): %s", reply.Status, errorOf(reply.Body))
	}

	if *output == "" {
		fmt.Println(string(reply.Body))
		return nil
	}
	if err := writeSnapshot(*output, reply.Body); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "snapshot written to %s\n", *output)
	return nil
}

func runRestore(args []string) error {
	flags := pflag.NewFlagSet("restore", pflag.ContinueOnError)
	var common commonFlags
	common.register(flags)
	input := flags.StringP("input", "i", "", "snapshot file to restore (required)")
	pass := flags.String("passphrase", "", "snapshot passphrase (default: $SRR_PASSPHRASE or prompt)")
	force := flags.Bool("force", false, "skip integrity verification (rollback stays enabled)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *input == "" {
		return fmt.Errorf("--input is required")
	}

	snapshotData, err := readSnapshot(*input)
	if err != nil {
		return err
	}

	var snapshot payload.SaveResponseUI
	if err := json.Unmarshal(snapshotData, &snapshot); err != nil {
		return fmt.Errorf("parsing snapshot %s: %w", *input, err)
	}

	secret, err := resolvePassphrase(*pass, true)
	if err != nil {
		return err
	}

	data, err := json.Marshal(snapshot.Data)
	if err != nil {
		return fmt.Errorf("marshaling snapshot groups: %w", err)
	}

	body, err := json.Marshal(payload.RestoreRequest{
		Version:    snapshot.Version,
		Checksum:   snapshot.Checksum,
		Passphrase: secret,
		Force:      *force,
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("marshaling restore request: %w", err)
	}

	reply, err := common.call("restore", body)
	if err != nil {
		return err
	}

	fmt.Println(string(reply.Body))
	if reply.Status != string(payload.StatusSuccess) {
		return fmt.Errorf("restore finished with status %s", reply.Status)
	}
	return nil
}

// errorOf extracts the error field from a reply body for terse CLI
// failure messages.
func errorOf(body []byte) string {
	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Error == "" {
		return string(body)
	}
	return parsed.Error
}
