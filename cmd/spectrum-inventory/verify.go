package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"spectrum-inventory/internal/logger"
	"spectrum-inventory/internal/verify"
)

// Verification backends. Tests replace them to avoid the network.
var (
	newScanner = func(opts ...verify.ScannerOption) verify.Scanner {
		return verify.NewPortScanner(opts...)
	}
	newKeyCollector = func(timeout time.Duration, user string) verify.KeyCollector {
		return verify.NewHostKeyCollector(timeout, user)
	}
	newSystemCollector = func(community string, timeout time.Duration) verify.SystemCollector {
		return verify.NewSNMPCollector(community, timeout)
	}
)

func runVerify(ctx context.Context, args []string, stdout io.Writer) error {
	fs := newFlagSet("verify")
	var flags commonFlags
	flags.register(fs)
	hostKeys := fs.Bool("host-keys", false, "collect SSH host key fingerprints for reachable port 22 hosts")
	timeout := fs.Duration("timeout", 0, "per-host SSH timeout (default from config)")
	nmapPath := fs.String("nmap", "", "path to the nmap binary")
	community := fs.String("snmp-community", "", "query the SNMP v2c system group with this community")
	asJSON := fs.Bool("json", false, "print results as JSON")
	report := fs.String("o", "", "write the report to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := flags.loadConfig(fs)
	if err != nil {
		return err
	}
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "host-keys":
			cfg.Verify.HostKeys = *hostKeys
		case "snmp-community":
			cfg.Verify.SNMPCommunity = *community
		}
	})

	timeoutPerHost := cfg.VerifyTimeout()
	if *timeout > 0 {
		timeoutPerHost = *timeout
	}

	loader, err := flags.newLoader(cfg)
	if err != nil {
		return err
	}
	result, err := load(ctx, loader, cfg.Export.Database)
	if err != nil {
		return err
	}
	inv, err := selectGroup(result.Inventory, flags.group)
	if err != nil {
		return err
	}

	scanOpts := []verify.ScannerOption{verify.WithScanLogger(logger.WithComponent("nmap"))}
	if *nmapPath != "" {
		scanOpts = append(scanOpts, verify.WithBinaryPath(*nmapPath))
	}

	opts := []verify.Option{verify.WithLogger(logger.WithComponent("verify"))}
	if cfg.Verify.HostKeys {
		opts = append(opts, verify.WithKeyCollector(
			newKeyCollector(timeoutPerHost, inv.Defaults.Username)))
	}

	if cfg.Verify.SNMPCommunity != "" {
		opts = append(opts, verify.WithSystemCollector(
			newSystemCollector(cfg.Verify.SNMPCommunity, timeoutPerHost)))
	}

	v := verify.New(newScanner(scanOpts...), opts...)
	results, err := v.Verify(ctx, inv)
	if err != nil {
		return err
	}

	w, closeFn, err := openOutput(*report, stdout)
	if err != nil {
		return err
	}
	if *asJSON {
		err = writeResultsJSON(w, results)
	} else {
		err = writeResultsTable(w, results)
	}
	if err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func writeResultsTable(w io.Writer, results []verify.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "HOST\tADDRESS\tPORT\tSTATE\tSYSNAME\tFINGERPRINT")
	for _, r := range results {
		sysName := "-"
		if r.System != nil && r.System.Name != "" {
			sysName = r.System.Name
		}
		fp := r.Fingerprint
		if r.Err != nil {
			fp = "error: " + r.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", r.Host, r.Address, r.Port, r.State, sysName, fp)
	}
	return tw.Flush()
}

type jsonResult struct {
	verify.Result
	Error string `json:"error,omitempty"`
}

func writeResultsJSON(w io.Writer, results []verify.Result) error {
	out := make([]jsonResult, 0, len(results))
	for _, r := range results {
		jr := jsonResult{Result: r}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		out = append(out, jr)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
