package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/router"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/rpc"
)

// responder turns a gloss into a result, locally or over gRPC.
type responder func(ctx context.Context, gloss string) (rpc.Result, error)

func respondCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "respond [gloss...]",
		Short: "Render English for a gloss; reads lines from stdin when no gloss is given",
		RunE:  runRespond,
	}
	cmd.Flags().String("addr", "", "gRPC address of a running controller (default: respond in-process)")
	return cmd
}

// #region respond
func runRespond(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	var respond responder
	if addr != "" {
		client, err := rpc.NewClient(addr)
		if err != nil {
			return err
		}
		defer client.Close()
		respond = client.RespondGloss
	} else {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		rt, err := newRouter(cfg)
		if err != nil {
			return err
		}
		respond = func(_ context.Context, gloss string) (rpc.Result, error) {
			resp := rt.RespondGloss(gloss)
			return rpc.Result{
				ASL:      gloss,
				Sentence: resp.Sentence,
				Intent:   resp.IntentKey,
				Slots:    resp.Slots,
				Template: resp.Template,
			}, nil
		}
	}

	if len(args) > 0 {
		return printResult(cmd.Context(), respond, strings.Join(args, " "))
	}

	fmt.Fprintln(os.Stderr, "Type a gloss (or 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		if err := printResult(cmd.Context(), respond, line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

// #endregion respond

func printResult(ctx context.Context, respond responder, gloss string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := respond(ctx, router.Gloss(strings.Fields(gloss)))
	if err != nil {
		return err
	}
	b, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(b))
	return nil
}
