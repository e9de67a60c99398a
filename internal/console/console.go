// Package console is a line-oriented reviewer console over the claim
// services. Every command prints its result as indented JSON.
package console

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/claimkeeper/internal/common"
	"github.com/dmitrijs2005/claimkeeper/internal/logging"
	"github.com/dmitrijs2005/claimkeeper/internal/server/models"
	"github.com/dmitrijs2005/claimkeeper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
)

// ClaimWriter is the write side used by the console.
type ClaimWriter interface {
	Submit(ctx context.Context, req *services.SubmitRequest) (*models.ClaimWithAttachments, error)
	Review(ctx context.Context, id int64, status, response string) (*models.ClaimWithAttachments, error)
	SeedSamples(ctx context.Context) (int, error)
}

// ClaimReader is the read side used by the console.
type ClaimReader interface {
	GetAll(ctx context.Context) ([]*models.ClaimWithAttachments, error)
	GetByID(ctx context.Context, id int64) (*models.ClaimWithAttachments, error)
	GetByEmployee(ctx context.Context, employeeID string) ([]*models.ClaimWithAttachments, error)
	Stats(ctx context.Context) (*services.Stats, error)
}

const helpText = `commands:
  list [employeeID]                 list claims, newest first
  show <id>                         show one claim
  submit                            submit a claim (prompts for fields)
  review <id> <status> [response]   set status to pending, approved or rejected
  seed                              insert sample claims into an empty database
  stats                             claim counts and service metrics
  help                              this text
  exit | quit                       leave`

// openFile is a test seam for os.Open.
var openFile = os.Open

type Console struct {
	writer      ClaimWriter
	reader      ClaimReader
	gatherer    prometheus.Gatherer
	log         logging.Logger
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

func New(w ClaimWriter, r ClaimReader, g prometheus.Gatherer, log logging.Logger, in io.Reader, out io.Writer, interactive bool) *Console {
	return &Console{
		writer:      w,
		reader:      r,
		gatherer:    g,
		log:         log.With("module", "console"),
		in:          bufio.NewReader(in),
		out:         out,
		interactive: interactive,
	}
}

// Run reads commands until EOF, exit/quit or ctx cancellation. Command
// failures are printed and do not stop the loop.
func (c *Console) Run(ctx context.Context) error {
	if c.interactive {
		fmt.Fprintln(c.out, "claims console (type 'help' for commands)")
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := readLine(c.in, c.out, "claims>", c.interactive)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd, args := parts[0], parts[1:]
		switch cmd {
		case "help":
			fmt.Fprintln(c.out, helpText)
		case "list", "l":
			c.report(ctx, cmd, c.list(ctx, args))
		case "show":
			c.report(ctx, cmd, c.show(ctx, args))
		case "submit":
			c.report(ctx, cmd, c.submit(ctx))
		case "review":
			c.report(ctx, cmd, c.review(ctx, args))
		case "seed":
			c.report(ctx, cmd, c.seed(ctx))
		case "stats":
			c.report(ctx, cmd, c.stats(ctx))
		case "exit", "quit":
			return nil
		default:
			fmt.Fprintln(c.out, "unknown command:", cmd)
		}
	}
}

type errorView struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func (c *Console) report(ctx context.Context, cmd string, err error) {
	if err == nil {
		return
	}
	c.log.Debug(ctx, "command failed", "command", cmd, "error", err)
	_ = c.print(errorView{Error: err.Error(), Status: common.HTTPStatus(err)})
}

func (c *Console) print(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, string(b))
	return err
}

func parseID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: claim id required", common.ErrorValidation)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid claim id %q", common.ErrorValidation, args[0])
	}
	return id, nil
}

func (c *Console) list(ctx context.Context, args []string) error {
	var (
		claims []*models.ClaimWithAttachments
		err    error
	)
	if len(args) > 0 {
		claims, err = c.reader.GetByEmployee(ctx, args[0])
	} else {
		claims, err = c.reader.GetAll(ctx)
	}
	if err != nil {
		return err
	}
	return c.print(claims)
}

func (c *Console) show(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	claim, err := c.reader.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return c.print(claim)
}

func (c *Console) review(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: status required", common.ErrorValidation)
	}
	claim, err := c.writer.Review(ctx, id, args[1], strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	return c.print(claim)
}

func (c *Console) submit(ctx context.Context) error {
	req := &services.SubmitRequest{}
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"employee id", &req.EmployeeID},
		{"employee name", &req.EmployeeName},
		{"title", &req.Title},
		{"amount", &req.Amount},
		{"category", &req.Category},
		{"description", &req.Description},
	}
	for _, f := range fields {
		v, err := readLine(c.in, c.out, f.prompt, c.interactive)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	paths, err := readLine(c.in, c.out, "attachments (comma separated paths, empty for none)", c.interactive)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	var files []*os.File
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	for _, p := range splitPaths(paths) {
		f, err := openFile(p)
		if err != nil {
			return fmt.Errorf("%w: %w", common.ErrorValidation, err)
		}
		files = append(files, f)

		size := int64(-1)
		if fi, err := f.Stat(); err == nil {
			size = fi.Size()
		}
		req.Attachments = append(req.Attachments, models.Upload{
			FileName: filepath.Base(p),
			Size:     size,
			Content:  f,
		})
	}

	claim, err := c.writer.Submit(ctx, req)
	if err != nil {
		return err
	}
	return c.print(claim)
}

func (c *Console) seed(ctx context.Context) error {
	n, err := c.writer.SeedSamples(ctx)
	if err != nil {
		return err
	}
	return c.print(map[string]int{"inserted": n})
}

type statsView struct {
	Claims  *services.Stats    `json:"claims"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

func (c *Console) stats(ctx context.Context) error {
	st, err := c.reader.Stats(ctx)
	if err != nil {
		return err
	}
	view := statsView{Claims: st}
	if c.gatherer != nil {
		view.Metrics, err = gatherCounters(c.gatherer)
		if err != nil {
			return err
		}
	}
	return c.print(view)
}

// gatherCounters flattens counters (and histogram sample counts) into
// "name{label=value}" keys.
func gatherCounters(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			sort.Strings(labels)
			key := mf.GetName()
			if len(labels) > 0 {
				key += "{" + strings.Join(labels, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				out[key+"_count"] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out, nil
}
