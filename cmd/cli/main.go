package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"meterflow/internal/aggregate"
	"meterflow/internal/cache"
	"meterflow/internal/config"
	"meterflow/internal/data"
	"meterflow/internal/export"
	"meterflow/internal/model"
	"meterflow/internal/period"
	"meterflow/internal/service"
	"meterflow/internal/tariff"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "sync":
		cmdSync(os.Args[2:])
	case "summary":
		cmdSummary(os.Args[2:])
	case "monthly":
		cmdMonthly(os.Args[2:])
	case "loadcurve":
		cmdLoadCurve(os.Args[2:])
	case "offpeak":
		cmdOffpeak(os.Args[2:])
	case "maxpower":
		cmdMaxPower(os.Args[2:])
	case "export":
		cmdExport(os.Args[2:])
	case "import":
		cmdImport(os.Args[2:])
	case "clear-cache":
		cmdClearCache(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli sync        --config config.yaml --meter <id> [--days 365]")
	fmt.Println("  cli summary     --config config.yaml --meter <id> [--production]")
	fmt.Println("  cli monthly     --config config.yaml --meter <id> [--production]")
	fmt.Println("  cli loadcurve   --config config.yaml --meter <id> [--date YYYY-MM-DD]")
	fmt.Println("  cli offpeak     --config config.yaml --meter <id>")
	fmt.Println("  cli maxpower    --config config.yaml --meter <id>")
	fmt.Println("  cli export      --config config.yaml --meter <id> --kind <kind> --out <file> [--format csv|json]")
	fmt.Println("  cli import      --config config.yaml --in <file>")
	fmt.Println("  cli clear-cache --config config.yaml [--meter <id>]")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - sync fetches readings from the gateway into the local cache")
	fmt.Println("  - the view commands read the cache only; sync first")
}

// env bundles everything a subcommand needs.
type env struct {
	cfg   *config.Config
	cache *cache.Cache
	close func()
}

func setup(cfgPath string) *env {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	var store cache.Store
	closeStore := func() {}
	switch cfg.Cache.Driver {
	case "postgres":
		pg, err := cache.OpenPostgres(context.Background(), cfg.Cache.DSN)
		if err != nil {
			log.Fatalf("opening postgres store: %v", err)
		}
		store = pg
		closeStore = func() { pg.Close() }
	case "file":
		fsStore, err := cache.NewFileStore(cfg.Cache.Dir)
		if err != nil {
			log.Fatalf("opening file store: %v", err)
		}
		store = fsStore
	default:
		// The memory driver does not survive across CLI invocations;
		// view commands then only see what the same run has synced.
		store = cache.NewMemoryStore()
	}

	return &env{cfg: cfg, cache: cache.New(store), close: closeStore}
}

func (e *env) contract(meterID string) model.MeterContract {
	m, ok := e.cfg.Meter(meterID)
	if !ok {
		log.Fatalf("meter %s is not configured", meterID)
	}
	return m.Contract()
}

// blocks resolves period blocks from the series' own extent.
func (e *env) blocks(s model.Series) []period.Block {
	if s.Empty() {
		return nil
	}
	t := e.cfg.Tariff
	return period.Resolve(s.Last(), s.First(), t.PresetValue(), t.Anchor(), t.Lookback)
}

func cmdSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "Path to YAML config")
	meterID := fs.String("meter", "", "Meter ID")
	days := fs.Int("days", 365, "Days of history to fetch, ending today")
	_ = fs.Parse(args)

	if *meterID == "" {
		log.Fatal("--meter is required")
	}

	e := setup(*cfgPath)
	defer e.close()

	client := data.NewClient(e.cfg.Provider.BaseURL, e.cfg.Provider.Token, e.cfg.Provider.Timeout())
	syncer := service.NewSyncer(data.NewPlanner(client), e.cache, log.Default())

	today := model.Day(time.Now())
	window := model.DateRange{Start: today.AddDate(0, 0, -*days+1), End: today}

	report := syncer.SyncMeter(context.Background(), e.contract(*meterID), window)
	fmt.Printf("sync %s: %s\n", report.MeterID, report.Phase)
	for _, k := range report.Kinds {
		line := fmt.Sprintf("  %-20s %-8s %d readings", k.Kind, k.Coverage, k.Count)
		if k.Warning != "" {
			line += "  (" + k.Warning + ")"
		}
		if k.Error != "" {
			line += "  (" + k.Error + ")"
		}
		fmt.Println(line)
	}
}

func cmdSummary(args []string) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "Path to YAML config")
	meterID := fs.String("meter", "", "Meter ID")
	production := fs.Bool("production", false, "Show production instead of consumption")
	_ = fs.Parse(args)

	if *meterID == "" {
		log.Fatal("--meter is required")
	}

	e := setup(*cfgPath)
	defer e.close()
	contract := e.contract(*meterID)

	kind := model.ConsumptionDaily
	readFrom := contract.MeterID
	if *production {
		kind = model.ProductionDaily
		readFrom = contract.ProductionSource()
	}

	s, err := e.cache.Read(context.Background(), readFrom, kind)
	if err != nil {
		log.Fatalf("reading cache: %v", err)
	}

	totals := aggregate.TotalsByPeriod(s, e.blocks(s))
	if len(totals) == 0 {
		fmt.Println("no cached data; run sync first")
		return
	}

	fmt.Printf("%-12s %14s %14s\n", "period", "current", "previous")
	for _, t := range totals {
		prev := "-"
		if t.HasPrevious {
			prev = fmt.Sprintf("%.1f kWh", t.PreviousWh/1000)
		}
		fmt.Printf("%-12s %10.1f kWh %14s\n", t.Label, t.CurrentWh/1000, prev)
	}
}

func cmdMonthly(args []string) {
	fs := flag.NewFlagSet("monthly", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "Path to YAML config")
	meterID := fs.String("meter", "", "Meter ID")
	production := fs.Bool("production", false, "Show production instead of consumption")
	_ = fs.Parse(args)

	if *meterID == "" {
		log.Fatal("--meter is required")
	}

	e := setup(*cfgPath)
	defer e.close()
	contract := e.contract(*meterID)

	kind := model.ConsumptionDaily
	readFrom := contract.MeterID
	if *production {
		kind = model.ProductionDaily
		readFrom = contract.ProductionSource()
	}

	s, err := e.cache.Read(context.Background(), readFrom, kind)
	if err != nil {
		log.Fatalf("reading cache: %v", err)
	}

	blocks := e.blocks(s)
	if len(blocks) == 0 {
		fmt.Println("no cached data; run sync first")
		return
	}

	keepZero := e.cfg.Tariff.PresetValue() == period.Rolling
	for _, b := range blocks {
		fmt.Printf("%s\n", b.Label)
		for _, m := range aggregate.MonthlyBreakdown(s, b.Current, keepZero) {
			fmt.Printf("  %04d-%02d %10.1f kWh\n", m.Year, m.Month, m.EnergyWh/1000)
		}
	}
}

func cmdLoadCurve(args []string) {
	fs := flag.NewFlagSet("loadcurve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "Path to YAML config")
	meterID := fs.String("meter", "", "Meter ID")
	date := fs.String("date", "", "Only this day (default: newest curve)")
	_ = fs.Parse(args)

	if *meterID == "" {
		log.Fatal("--meter is required")
	}

	e := setup(*cfgPath)
	defer e.close()
	contract := e.contract(*meterID)

	s, err := e.cache.Read(context.Background(), contract.MeterID, model.ConsumptionDetail)
	if err != nil {
		log.Fatalf("reading cache: %v", err)
	}

	curves := aggregate.DailyLoadCurves(s)
	if len(curves) == 0 {
		fmt.Println("no cached detail data; run sync first")
		return
	}

	curve := curves[len(curves)-1]
	if *date != "" {
		want, err := time.ParseInLocation("2006-01-02", *date, time.Local)
		if err != nil {
			log.Fatalf("bad --date: %v", err)
		}
		found := false
		for _, c := range curves {
			if c.Date.Equal(model.Day(want)) {
				curve, found = c, true
				break
			}
		}
		if !found {
			log.Fatalf("no curve for %s", *date)
		}
	}

	fmt.Printf("%s (%d points)\n", curve.Date.Format("2006-01-02"), len(curve.Points))
	for _, p := range curve.Points {
		fmt.Printf("  %s %8.3f kW %10.1f Wh\n",
			p.Time.Format("15:04"), p.AvgPowerKW, p.EnergyWh)
	}
}

func cmdOffpeak(args []string) {
	fs := flag.NewFlagSet("offpeak", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "Path to YAML config")
	meterID := fs.String("meter", "", "Meter ID")
	_ = fs.Parse(args)

	if *meterID == "" {
		log.Fatal("--meter is required")
	}

	e := setup(*cfgPath)
	defer e.close()
	contract := e.contract(*meterID)

	s, err := e.cache.Read(context.Background(), contract.MeterID, model.ConsumptionDetail)
	if err != nil {
		log.Fatalf("reading cache: %v", err)
	}

	schedule := tariff.Parse(contract.OffpeakRanges)
	if schedule.Empty() {
		fmt.Println("warning: no off-peak windows configured; everything counts as peak")
	}

	splits := aggregate.OffpeakSplit(s, schedule, e.blocks(s))
	if len(splits) == 0 {
		fmt.Println("no cached detail data; run sync first")
		return
	}

	rates := e.cfg.Tariff.Rates()
	for _, sp := range splits {
		fmt.Printf("%-12s off-peak %8.1f kWh   peak %8.1f kWh   total %8.1f kWh",
			sp.Label, sp.OffpeakWh/1000, sp.PeakWh/1000, sp.TotalWh/1000)
		if rates != nil {
			fmt.Printf("   %8.2f EUR", sp.Cost(rates))
		}
		fmt.Println()
	}
}

func cmdMaxPower(args []string) {
	fs := flag.NewFlagSet("maxpower", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "Path to YAML config")
	meterID := fs.String("meter", "", "Meter ID")
	_ = fs.Parse(args)

	if *meterID == "" {
		log.Fatal("--meter is required")
	}

	e := setup(*cfgPath)
	defer e.close()
	contract := e.contract(*meterID)

	s, err := e.cache.Read(context.Background(), contract.MeterID, model.MaxPower)
	if err != nil {
		log.Fatalf("reading cache: %v", err)
	}

	years := aggregate.MaxPowerByYear(s)
	if len(years) == 0 {
		fmt.Println("no cached max-power data; run sync first")
		return
	}
	for _, y := range years {
		peak := 0.0
		var at time.Time
		for _, p := range y.Peaks {
			if p.PowerW > peak {
				peak, at = p.PowerW, p.Timestamp
			}
		}
		fmt.Printf("%d  highest %.2f kVA at %s  (%d readings)\n",
			y.Year, peak/1000, at.Format("2006-01-02 15:04"), len(y.Peaks))
	}
}

func cmdExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "Path to YAML config")
	meterID := fs.String("meter", "", "Meter ID")
	kindStr := fs.String("kind", string(model.ConsumptionDaily), "Data kind to export")
	out := fs.String("out", "", "Output file")
	format := fs.String("format", "csv", "Output format: csv or json")
	_ = fs.Parse(args)

	if *meterID == "" || *out == "" {
		log.Fatal("--meter and --out are required")
	}
	kind := model.DataKind(*kindStr)
	if !kind.Valid() {
		log.Fatalf("unknown data kind %q", *kindStr)
	}

	e := setup(*cfgPath)
	defer e.close()

	s, err := e.cache.Read(context.Background(), *meterID, kind)
	if err != nil {
		log.Fatalf("reading cache: %v", err)
	}
	if s.Empty() {
		log.Fatalf("nothing cached for %s/%s; run sync first", *meterID, kind)
	}

	switch *format {
	case "csv":
		err = export.WriteSeriesCSV(*out, s)
	case "json":
		err = export.WriteSeriesJSON(*out, s)
	default:
		log.Fatalf("unknown format %q", *format)
	}
	if err != nil {
		log.Fatalf("writing %s: %v", *out, err)
	}
	fmt.Printf("exported %d readings to %s\n", len(s.Readings), *out)
}

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "Path to YAML config")
	in := fs.String("in", "", "Series dump to import (JSON)")
	_ = fs.Parse(args)

	if *in == "" {
		log.Fatal("--in is required")
	}

	e := setup(*cfgPath)
	defer e.close()

	s, err := export.ReadSeriesJSON(*in)
	if err != nil {
		log.Fatalf("reading %s: %v", *in, err)
	}

	merged, err := e.cache.Write(context.Background(), s.MeterID, s.Kind, s.Readings)
	if err != nil {
		log.Fatalf("writing cache: %v", err)
	}
	fmt.Printf("imported %d readings for %s/%s (%d cached)\n",
		len(s.Readings), s.MeterID, s.Kind, len(merged.Readings))
}

func cmdClearCache(args []string) {
	fs := flag.NewFlagSet("clear-cache", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "Path to YAML config")
	meterID := fs.String("meter", "", "Only this meter (default: everything)")
	_ = fs.Parse(args)

	e := setup(*cfgPath)
	defer e.close()

	if err := e.cache.Clear(context.Background(), *meterID, ""); err != nil {
		log.Fatalf("clearing cache: %v", err)
	}
	if *meterID == "" {
		fmt.Println("cleared all cached series")
	} else {
		fmt.Printf("cleared cached series for %s\n", *meterID)
	}
}
