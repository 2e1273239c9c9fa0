package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
	"sigs.k8s.io/yaml"

	api "github.com/pvetools/backup-tracker/api/v1alpha1"
	"github.com/pvetools/backup-tracker/internal/client"
)

const (
	jsonFormat = "json"
	yamlFormat = "yaml"
)

var (
	legalOutputTypes = []string{jsonFormat, yamlFormat}
)

type GetOptions struct {
	GlobalOptions

	Output    string
	JobID     string
	ResultID  string
	Status    string
	JobType   string
	RelatedVm string
	Limit     int
	Offset    int
}

func DefaultGetOptions() *GetOptions {
	return &GetOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdGet() *cobra.Command {
	o := DefaultGetOptions()
	cmd := &cobra.Command{
		Use:   "get (TYPE | TYPE/ID)",
		Short: "Display one or many resources.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *GetOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
	fs.StringVar(&o.JobID, "job", o.JobID, "List vm results belonging to this job id.")
	fs.StringVar(&o.ResultID, "result", o.ResultID, "List logs belonging to this vm result id.")
	fs.StringVar(&o.Status, "status", o.Status, "Filter jobs by status.")
	fs.StringVar(&o.JobType, "type", o.JobType, "Filter jobs by type.")
	fs.StringVar(&o.RelatedVm, "related-vm", o.RelatedVm, "Filter jobs by related vm.")
	fs.IntVar(&o.Limit, "limit", o.Limit, "Maximum number of jobs to list.")
	fs.IntVar(&o.Offset, "offset", o.Offset, "Number of jobs to skip before listing.")
}

func (o *GetOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	return nil
}

func (o *GetOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}

	kind, id, err := parseAndValidateKindId(args[0])
	if err != nil {
		return err
	}
	if id != "" {
		if _, err := parseId(id); err != nil {
			return err
		}
	}

	switch kind {
	case ResultKind:
		if id == "" && o.JobID == "" {
			return fmt.Errorf("listing vm results requires --job")
		}
	case LogKind:
		if o.ResultID == "" {
			return fmt.Errorf("listing logs requires --result")
		}
	case StatsKind:
		if id != "" {
			return fmt.Errorf("stats takes no id")
		}
	}

	if len(o.Output) > 0 && !funk.Contains(legalOutputTypes, o.Output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}

	return nil
}

func (o *GetOptions) Run(ctx context.Context, args []string) error {
	c := o.Client()

	kind, id, err := parseAndValidateKindId(args[0])
	if err != nil {
		return err
	}

	var resourceId uuid.UUID
	if id != "" {
		if resourceId, err = parseId(id); err != nil {
			return err
		}
	}

	var response interface{}
	switch {
	case kind == JobKind && id != "":
		response, err = c.GetJob(ctx, resourceId)
	case kind == JobKind:
		response, err = c.ListJobs(ctx, &client.ListJobsParams{
			Status:    o.Status,
			Type:      o.JobType,
			RelatedVm: o.RelatedVm,
			Limit:     o.Limit,
			Offset:    o.Offset,
		})
	case kind == ResultKind && id != "":
		response, err = c.GetVmResult(ctx, resourceId)
	case kind == ResultKind:
		jobId, parseErr := parseId(o.JobID)
		if parseErr != nil {
			return parseErr
		}
		response, err = c.ListJobResults(ctx, jobId)
	case kind == LogKind:
		resultId, parseErr := parseId(o.ResultID)
		if parseErr != nil {
			return parseErr
		}
		response, err = c.ListVmResultLogs(ctx, resultId)
	case kind == StatsKind:
		response, err = c.Stats(ctx)
	default:
		return fmt.Errorf("unsupported resource kind: %s", kind)
	}
	return processResponse(response, err, kind, id, o.Output)
}

func processResponse(response interface{}, err error, kind string, id string, output string) error {
	errorPrefix := fmt.Sprintf("reading %s/%s", kind, id)
	if id == "" {
		errorPrefix = fmt.Sprintf("listing %s", plural(kind))
	}

	if err != nil {
		return fmt.Errorf(errorPrefix+": %w", err)
	}

	switch output {
	case jsonFormat:
		marshalled, err := json.Marshal(response)
		if err != nil {
			return fmt.Errorf("marshalling resource: %w", err)
		}
		fmt.Printf("%s\n", string(marshalled))
		return nil
	case yamlFormat:
		marshalled, err := yaml.Marshal(response)
		if err != nil {
			return fmt.Errorf("marshalling resource: %w", err)
		}
		fmt.Printf("%s\n", string(marshalled))
		return nil
	default:
		return printTable(response)
	}
}

func printTable(response interface{}) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 1, '\t', 0)
	switch r := response.(type) {
	case api.JobList:
		printJobsTable(w, r...)
	case *api.JobDetail:
		printJobDetailTable(w, r)
	case api.VmResultList:
		printVmResultsTable(w, r...)
	case *api.VmResult:
		printVmResultsTable(w, *r)
	case api.VmLogList:
		printVmLogsTable(w, r...)
	case *api.Stats:
		printStatsTable(w, r)
	default:
		return fmt.Errorf("unknown resource type %T", response)
	}
	w.Flush()
	return nil
}

func printJobsTable(w *tabwriter.Writer, jobs ...api.Job) {
	fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tRELATED VM\tSTARTED\tCOMPLETED")
	for _, j := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", j.Id, j.Type, j.Status, j.RelatedVm, j.StartedAt.Format(time.RFC3339), formatTime(j.CompletedAt))
	}
}

func printJobDetailTable(w *tabwriter.Writer, detail *api.JobDetail) {
	fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tOUTCOME\tRESULTS")
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", detail.Id, detail.Type, detail.Status, detail.DerivedOutcome, formatCounts(detail.ResultCounts))
}

func printVmResultsTable(w *tabwriter.Writer, results ...api.VmResult) {
	fmt.Fprintln(w, "ID\tVMID\tNAME\tSTATUS\tSNAPSHOT\tCOMPLETED")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n", r.Id, r.Vmid, r.VmName, r.Status, r.SnapshotName, formatTime(r.CompletedAt))
	}
}

func printVmLogsTable(w *tabwriter.Writer, logs ...api.VmLog) {
	fmt.Fprintln(w, "TIMESTAMP\tLEVEL\tMESSAGE")
	for _, l := range logs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", l.Timestamp.Format(time.RFC3339), l.Level, l.Message)
	}
}

func printStatsTable(w *tabwriter.Writer, stats *api.Stats) {
	fmt.Fprintln(w, "RESOURCE\tTOTAL\tBY STATUS")
	fmt.Fprintf(w, "jobs\t%d\t%s\n", stats.Jobs.Total, formatCounts(stats.Jobs.ByStatus))
	fmt.Fprintf(w, "vm results\t%d\t%s\n", stats.VmResults.Total, formatCounts(stats.VmResults.ByStatus))
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(counts))
	for status, count := range counts {
		parts = append(parts, fmt.Sprintf("%s=%d", status, count))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
