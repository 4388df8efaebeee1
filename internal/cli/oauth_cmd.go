// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// oauth_cmd.go - OAuth login and code redemption.
//
// Commands:
//   login                              Print the provider authorization URL
//   login --listen [--apply] [--timeout 5m]
//                                      Also receive the redirect and redeem it
//   redeem --code CODE [--apply]       Exchange a code for a key
//   redeem --callback-url URL [--apply]
//
// The provider redirects to the callback URL with a "code" parameter.
// Pass that URL (or just the code) to redeem, or let login --listen
// receive it. The key is only stored when --apply is given or
// oauth.apply_key is set.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jeranaias/orchat/internal/config"
	"github.com/jeranaias/orchat/internal/oauth"
	"github.com/jeranaias/orchat/internal/server"
)

// DefaultLoginTimeout bounds how long login --listen waits for the redirect.
const DefaultLoginTimeout = 5 * time.Minute

// HandleLogin prints the authorization URL. With --listen it also waits
// for the redirect on the callback address and redeems the code.
func HandleLogin(ctx context.Context, args Args, env Env) error {
	cfg, _, err := loadConfig(args)
	if err != nil {
		return err
	}

	listen := args.Parser.BoolFlag("listen")
	if args.Parser.HasFlag("timeout") {
		if !listen {
			return &UsageError{Reason: "--timeout only applies with --listen", Example: "orchat login --listen --timeout 2m"}
		}
		if args.Parser.Flag("timeout") == "" {
			return ErrMissingArgument("--timeout value", "orchat login --listen --timeout 2m")
		}
	}
	timeout, err := time.ParseDuration(args.Parser.FlagOrDefault("timeout", DefaultLoginTimeout.String()))
	if err != nil || timeout <= 0 {
		return &UsageError{Reason: "invalid --timeout " + args.Parser.Flag("timeout"), Example: "orchat login --listen --timeout 2m"}
	}

	var rcv *server.Receiver
	if listen {
		var logger *slog.Logger
		if args.Verbose {
			logger = slog.New(slog.NewTextHandler(env.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		}
		rcv, err = server.NewReceiver(cfg.OAuth.CallbackURL, logger)
		if err != nil {
			return NewCommandError("login", "listen", err)
		}
		if err := rcv.Start(); err != nil {
			return NewCommandError("login", "listen", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = rcv.Shutdown(shutdownCtx)
		}()
	}

	link, err := oauth.AuthURL(cfg.OAuth.AuthURL, cfg.OAuth.CallbackURL)
	if err != nil {
		return NewCommandError("login", "", err)
	}

	if !listen {
		if args.JSON {
			return NewJSONResponse("login", map[string]string{"url": link}).Print(env.Stdout)
		}
		fmt.Fprintln(env.Stdout, "Open this URL to authorize orchat:")
		fmt.Fprintln(env.Stdout, "  "+link)
		fmt.Fprintln(env.Stdout, "Then run: orchat redeem --callback-url '<the URL you were sent to>'")
		return nil
	}

	fmt.Fprintln(env.Stderr, "Open this URL to authorize orchat:")
	fmt.Fprintln(env.Stderr, "  "+link)
	fmt.Fprintf(env.Stderr, "Waiting for the redirect on %s ...\n", rcv.URL())

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	query, err := rcv.Wait(waitCtx)
	if err != nil {
		return NewCommandError("login", "wait for redirect", err)
	}
	return redeem(ctx, args, env, query)
}

// redeemQuery builds the callback query from --code or --callback-url.
func redeemQuery(p *ArgParser) (url.Values, error) {
	if raw := p.Flag("callback-url"); raw != "" {
		q, err := oauth.CodeFromCallback(raw)
		if errors.Is(err, oauth.ErrNoCode) {
			return nil, &UsageError{Reason: "callback URL has no code parameter"}
		}
		return q, err
	}
	code := strings.TrimSpace(p.Flag("code"))
	if code == "" {
		code = strings.TrimSpace(p.Positional(0))
	}
	if code == "" {
		return nil, ErrMissingArgument("--code or --callback-url", "orchat redeem --code abc123")
	}
	q := url.Values{}
	q.Set(oauth.CodeParam, code)
	return q, nil
}

// HandleRedeem exchanges the inbound code through a mounted session.
func HandleRedeem(ctx context.Context, args Args, env Env) error {
	query, err := redeemQuery(args.Parser)
	if err != nil {
		return err
	}
	return redeem(ctx, args, env, query)
}

func redeem(ctx context.Context, args Args, env Env, query url.Values) error {
	apply := args.Parser.BoolFlag("apply")
	rt, err := Open(args, env, OpenOptions{
		Query: query,
		Configure: func(cfg *config.Config) {
			if apply {
				cfg.OAuth.ApplyKey = true
			}
		},
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	report, err := rt.Mount(ctx)
	if err != nil {
		return NewCommandError("redeem", "mount", err)
	}
	if report.RedeemErr != nil {
		return NewCommandError("redeem", "exchange", report.RedeemErr)
	}

	res := report.Redeem
	if args.JSON {
		return NewJSONResponse("redeem", RedeemData{
			KeyReceived: res.KeyReceived,
			Applied:     res.Applied,
			Fingerprint: res.Fingerprint,
		}).Print(env.Stdout)
	}

	switch {
	case res.Applied:
		fmt.Fprintf(env.Stdout, "API key received and stored (fingerprint %s).\n", res.Fingerprint)
	case res.KeyReceived:
		fmt.Fprintf(env.Stdout, "API key received (fingerprint %s) but not stored. Re-run with --apply.\n", res.Fingerprint)
	default:
		fmt.Fprintln(env.Stdout, "Exchange succeeded but no key was returned.")
	}
	return nil
}
