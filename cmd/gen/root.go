package gen

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ValentinKolb/tatp/cmd/util"
	"github.com/ValentinKolb/tatp/lib/tatp/datagen"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	GenCmd = &cobra.Command{
		Use:   "gen",
		Short: "Print the generated subscriber data of an id range",
		Long:  `Print the rows generated for the subscribers with ids in [start, end) as JSON lines, one row per line in write order. The output only depends on the id range.`,
		RunE:  generate,
	}
)

// line is one printed row
type line struct {
	Table  string         `json:"table"`
	Schema string         `json:"schema"`
	Fields map[string]any `json:"fields"`
}

func init() {
	key := "start"
	GenCmd.Flags().Int32(key, 1, util.WrapString("First subscriber id"))
	key = "end"
	GenCmd.Flags().Int32(key, 11, util.WrapString("Subscriber id after the last generated one"))
	key = "summary"
	GenCmd.Flags().Bool(key, false, util.WrapString("Only print the number of rows per table"))
}

func generate(_ *cobra.Command, _ []string) error {
	start, end := viper.GetInt32("start"), viper.GetInt32("end")
	if end < start {
		return errors.Newf("end %d is smaller than start %d", end, start)
	}

	ops := datagen.GenerateSubscriberData(start, end)

	if viper.GetBool("summary") {
		counts := datagen.Count(ops)
		for _, kind := range []datagen.Kind{
			datagen.KindSubscriber,
			datagen.KindAccessInfo,
			datagen.KindSpecialFacility,
			datagen.KindCallForwarding,
		} {
			fmt.Printf("%-20s%d\n", kind, counts[kind])
		}
		return nil
	}

	w := bufio.NewWriter(os.Stdout)
	enc := json.NewEncoder(w)
	for _, op := range ops {
		rec := op.Row.ToRecord()
		l := line{
			Table:  op.Kind.String(),
			Schema: rec.Schema.Name,
			Fields: make(map[string]any, len(rec.Values)),
		}
		for i, f := range rec.Schema.Fields {
			l.Fields[f.Name] = rec.Values[i]
		}
		if err := enc.Encode(l); err != nil {
			return errors.Wrap(err, "encode row")
		}
	}
	return errors.Wrap(w.Flush(), "flush output")
}
