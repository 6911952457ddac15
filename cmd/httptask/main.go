// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command httptask issues one HTTP request through an httptask Client
// and prints the JSON response.
//
// Usage:
//
//	httptask [-config path] [-X method] [-p key=value]... path
//
// The path is resolved against base_url from the config file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gogama/httptask"
	"github.com/gogama/httptask/config"
	"github.com/gogama/httptask/jsonvalue"
	"github.com/gogama/httptask/request"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

type params map[string]interface{}

func (p params) String() string {
	return fmt.Sprint(map[string]interface{}(p))
}

func (p params) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("want key=value, got %q", s)
	}
	p[k] = v
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file path (optional)")
	method := flag.String("X", "GET", "request method")
	jsonParams := flag.Bool("json", false, "encode body parameters as JSON")
	ps := params{}
	flag.Var(ps, "p", "request parameter as key=value (repeatable)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: httptask [flags] path")
		flag.PrintDefaults()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "httptask: %v\n", err)
		return 1
	}
	if *jsonParams {
		cfg.ParameterEncoding = request.JSON
	}

	logger, err := SetupLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "httptask: %v\n", err)
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := do(ctx, cfg, logger, request.Method(strings.ToUpper(*method)), flag.Arg(0), ps); err != nil {
		logger.Error("request failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "httptask: %v\n", err)
		return 1
	}
	return 0
}

func do(ctx context.Context, cfg config.Config, logger *zap.Logger, method request.Method, path string, ps params) error {
	doer, err := httptask.NewHTTPDoer(cfg.ConnectTimeout)
	if err != nil {
		return fmt.Errorf("new http doer: %w", err)
	}
	transport := &httptask.HTTPTransport{
		HTTPDoer:      doer,
		TimeoutPolicy: cfg.TimeoutPolicy(),
	}
	defer transport.CloseIdleConnections()

	ui := httptask.NewMainQueue()
	defer ui.Close()

	client, err := httptask.NewClient(transport, cfg,
		httptask.WithDispatcher(ui),
		httptask.WithPassthrough(httptask.NewZapPassthrough(logger)))
	if err != nil {
		return err
	}

	task := client.Request(method, path, ps)
	if method == request.HEAD {
		task.Process(func(r *httptask.Response) (interface{}, error) {
			return fmt.Sprintf("%d %s", r.StatusCode, r.Header), nil
		})
	} else {
		task.ResponseJSON(nil).Transform(func(v interface{}) (interface{}, error) {
			return jsoniter.MarshalIndent(v.(jsonvalue.Value).Interface(), "", "  ")
		})
	}
	task.UpdateUI(func(v interface{}) {
		fmt.Printf("%s\n", v)
	})
	if !cfg.StartTasksImmediately {
		task.Resume()
	}

	r, err := task.Wait(ctx)
	if err != nil {
		task.Cancel()
		return err
	}
	if r.Failed() {
		var e *httptask.Error
		if resp := task.Response(); resp != nil && errors.As(r.Err(), &e) && e.EmptyBody() {
			return fmt.Errorf("status %d with no body", resp.StatusCode)
		}
		return r.Err()
	}
	return nil
}
