package commands

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/laomaiweng/uidmapshift"
)

var (
	shiftConfig struct {
		excludeUIDRanges []string
		excludeGIDRanges []string
		excludePaths     []string
		onlyACL          bool
		noACL            bool
		dryRun           bool
		yolo             bool
		quiet            bool
	}

	MainCmd = &cobra.Command{
		Use:   "uidmapshift [flags] uid_offset[:gid_offset] [path]",
		Short: "Shift UIDs/GIDs of a file hierarchy.",
		Long: `Shift UIDs/GIDs of a file hierarchy by a fixed offset, including the
named user and group entries of POSIX ACLs. For use in managing storage
for LXC priv/unpriv containers.

Offsets and range bounds accept base-0 integers (0x... for hex).
Exclusion path globs are matched against the joined path of each entry;
use ** to match across directory separators.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runShift,

		SilenceUsage: true,
	}
)

func init() {
	flags := MainCmd.Flags()
	flags.StringArrayVarP(&shiftConfig.excludeUIDRanges, "exclude-uid-range", "e", nil,
		"range of UIDs to exclude from shifting (cumulative, inclusive, format: start[-end])")
	flags.StringArrayVarP(&shiftConfig.excludeGIDRanges, "exclude-gid-range", "E", nil,
		"range of GIDs to exclude from shifting (cumulative, inclusive, format: start[-end])")
	flags.StringArrayVarP(&shiftConfig.excludePaths, "exclude-path", "P", nil,
		"path glob to exclude from shifting (cumulative)")
	flags.BoolVarP(&shiftConfig.onlyACL, "only-acl", "a", false,
		"only shift UID/GID in ACLs, ignore user/group ownership")
	flags.BoolVarP(&shiftConfig.noACL, "no-acl", "A", false,
		"do not shift UID/GID in ACLs")
	flags.BoolVarP(&shiftConfig.dryRun, "dry-run", "n", false,
		"list the UID/GID shifts that would be performed but do not actually shift anything")
	flags.BoolVar(&shiftConfig.yolo, "yolo", false,
		"don't perform an implicit dry-run before the actual shift operation")
	flags.BoolVarP(&shiftConfig.quiet, "quiet", "q", false,
		"do not list the changes performed")
	MainCmd.MarkFlagsMutuallyExclusive("only-acl", "no-acl")
}

func runShift(cmd *cobra.Command, args []string) error {
	uidOffset, gidOffset, err := parseOffsets(args[0])
	if err != nil {
		return err
	}
	root := "."
	if len(args) > 1 {
		root = args[1]
	}

	excludeUIDs, err := parseRanges(shiftConfig.excludeUIDRanges)
	if err != nil {
		return err
	}
	excludeGIDs, err := parseRanges(shiftConfig.excludeGIDRanges)
	if err != nil {
		return err
	}

	reporter := &logReporter{quiet: shiftConfig.quiet}
	shifter, err := uidmapshift.New(uidmapshift.Config{
		UIDOffset:    uidOffset,
		GIDOffset:    gidOffset,
		ExcludeUIDs:  excludeUIDs,
		ExcludeGIDs:  excludeGIDs,
		ExcludePaths: shiftConfig.excludePaths,
		Reporter:     reporter,
	})
	if err != nil {
		return err
	}

	opts := uidmapshift.Options{
		ShiftOwner: !shiftConfig.onlyACL,
		ShiftACL:   !shiftConfig.noACL,
		DryRun:     shiftConfig.dryRun,
	}

	if !opts.DryRun && !shiftConfig.yolo {
		// Weed out obvious problems (bad offsets, unreadable entries)
		// before touching anything. Not fool-proof: the tree can still
		// change underneath us between the two passes.
		logrus.Info("performing sanity-check dry-run")
		dryOpts := opts
		dryOpts.DryRun = true
		reporter.quiet = true
		stats, err := shifter.Run(root, dryOpts)
		reporter.quiet = shiftConfig.quiet
		if err != nil {
			return err
		}
		printStats("dry-run ", stats)
		logrus.Info("all good, doing the real thing now")
	} else if !opts.DryRun {
		logrus.Warn("Leeeeroy Jenkins!")
	}

	stats, err := shifter.Run(root, opts)
	if err != nil {
		return err
	}
	printStats("", stats)
	return nil
}

func printStats(prefix string, stats uidmapshift.Stats) {
	logrus.Infof("%sshifted files/dirs: %s (uids:%d gids:%d acls:%d default-acls:%d)",
		prefix, humanize.Comma(stats.ShiftedPaths),
		stats.ShiftedUIDs, stats.ShiftedGIDs, stats.ShiftedACLs, stats.ShiftedDefaultACLs)
	logrus.Infof("%sskipped files/dirs: %s", prefix, humanize.Comma(stats.Skipped))
}

// parseOffsets parses the "uid_offset[:gid_offset]" positional argument.
// A single value applies to both identifier spaces.
func parseOffsets(s string) (int64, int64, error) {
	suid, sgid, ok := strings.Cut(s, ":")
	if !ok {
		sgid = suid
	}
	uid, err := strconv.ParseInt(suid, 0, 64)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "malformed offset %q", s)
	}
	gid, err := strconv.ParseInt(sgid, 0, 64)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "malformed offset %q", s)
	}
	return uid, gid, nil
}

func parseRanges(specs []string) ([]uidmapshift.Range, error) {
	ranges := make([]uidmapshift.Range, 0, len(specs))
	for _, s := range specs {
		r, err := uidmapshift.ParseRange(s)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}
