package gar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrAlreadyLoaded guards a full import against clobbering loaded data.
var ErrAlreadyLoaded = errors.New("data already loaded, rerun with --truncate to replace it")

// ErrNoDataLoaded means update was asked to run against an empty store.
var ErrNoDataLoaded = errors.New("no data loaded yet, run a full import first")

// Options configures a Service.
type Options struct {
	// Tables restricts which tables are tracked; empty means all.
	Tables []TableName
	// Regions restricts regional tables to the listed region codes.
	Regions []string
	// HouseTypes restricts houses to the listed house type ids.
	HouseTypes []int64
	// RetainInactive lists tables whose inactive rows survive cleanup.
	RetainInactive []TableName
	// Limit is the batch size for inserts; zero means DefaultLimit.
	Limit int
	// Workers bounds concurrent per-file loads; zero or one is sequential.
	Workers int
	// TempDir receives downloaded archives.
	TempDir string
}

// Service orchestrates imports and updates of the registry.
type Service struct {
	store      Store
	log        Logger
	clock      Clock
	resolver   SourceResolver
	downloader Downloader
	versions   VersionClient

	filters    FilterSet
	validators *Validators

	statsTables   []TableName
	defaultTables []TableName
	opts          Options
}

func NewService(store Store, log Logger, clock Clock, resolver SourceResolver, downloader Downloader, versions VersionClient, opts Options) *Service {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Service{
		store:         store,
		log:           log,
		clock:         clock,
		resolver:      resolver,
		downloader:    downloader,
		versions:      versions,
		filters:       NewFilterSet(opts.HouseTypes),
		validators:    NewValidators(clock, opts.RetainInactive),
		statsTables:   trackedOf(TablesStats, opts.Tables),
		defaultTables: trackedOf(TablesDefault, opts.Tables),
		opts:          opts,
	}
}

// Tracked returns the tables the service manages, dictionaries first.
func (s *Service) Tracked() []TableName {
	return append(append([]TableName{}, s.statsTables...), s.defaultTables...)
}

func trackedOf(all, wanted []TableName) []TableName {
	if len(wanted) == 0 {
		return append([]TableName{}, all...)
	}
	set := make(map[TableName]bool, len(wanted))
	for _, name := range wanted {
		set[name] = true
	}
	tracked := make([]TableName, 0, len(all))
	for _, name := range all {
		if set[name] {
			tracked = append(tracked, name)
		}
	}
	return tracked
}

// ImportOptions configures one full load.
type ImportOptions struct {
	// Src is a local archive, a directory, or an http(s) URL. Empty means
	// the latest known version's complete dump URL.
	Src             string
	Truncate        bool
	KeepIndexes     bool
	SkipVersionInfo bool
}

// Import performs a full load of one complete dump.
func (s *Service) Import(ctx context.Context, opts ImportOptions) error {
	if !opts.SkipVersionInfo {
		if err := s.RefreshVersions(ctx); err != nil {
			return err
		}
	}

	loaded, err := s.store.CountStatuses(ctx)
	if err != nil {
		return err
	}
	if loaded > 0 && !opts.Truncate {
		return ErrAlreadyLoaded
	}

	src := opts.Src
	if src == "" {
		latest, err := s.store.LatestVersion(ctx)
		if err != nil {
			return err
		}
		if latest == nil || latest.CompleteXMLURL == nil {
			return errors.New("no versions known, cannot pick a dump to load")
		}
		src = *latest.CompleteXMLURL
	}
	src, err = s.fetch(ctx, src)
	if err != nil {
		return err
	}

	list, err := s.resolver.Resolve(ctx, src, 0, s.opts.Regions, s.Tracked())
	if err != nil {
		return err
	}
	defer list.Close()

	version, err := s.versionOf(ctx, list)
	if err != nil {
		return err
	}
	s.log.Info("starting full load", "src", src, "ver", version.Ver)

	if opts.Truncate {
		for _, name := range s.Tracked() {
			if err := s.store.Truncate(ctx, Tables[name]); err != nil {
				return err
			}
			if err := s.store.DeleteStatuses(ctx, name); err != nil {
				return err
			}
		}
	}
	if !opts.KeepIndexes {
		if err := s.store.DropIndexes(ctx); err != nil {
			return err
		}
		defer func() {
			if err := s.store.RestoreIndexes(context.WithoutCancel(ctx)); err != nil {
				s.log.Error("restoring indexes failed", "error", err)
			}
		}()
	}

	loader := NewLoader(s.store, s.log, s.validators, s.opts.Limit)
	handles := list.Tables()

	for _, name := range s.statsTables {
		for _, h := range handles[name] {
			if err := s.loadHandle(ctx, loader, list, h, version.Ver); err != nil {
				return err
			}
		}
	}
	if err := s.checkTypeConfig(ctx); err != nil {
		return err
	}

	for _, name := range s.defaultTables {
		group, gctx := errgroup.WithContext(ctx)
		group.SetLimit(s.opts.Workers)
		for _, h := range handles[name] {
			h := h
			group.Go(func() error {
				return s.loadHandle(gctx, loader, list, h, version.Ver)
			})
		}
		if err := group.Wait(); err != nil {
			return err
		}
	}

	return s.FixData(ctx, 0)
}

func (s *Service) loadHandle(ctx context.Context, loader *Loader, list TableList, h *TableHandle, ver int) error {
	status, err := s.store.GetStatus(ctx, h.Name, regionPtr(h.Region))
	if err != nil {
		return err
	}
	if status != nil {
		s.log.Info("table already loaded, skipping", "table", h.Name, "region", h.Region)
		return nil
	}

	it, err := list.Open(h, ver, s.filters)
	if err != nil {
		return err
	}
	defer it.Close()

	started := s.clock.Now()
	result, err := loader.Load(ctx, Tables[h.Name], it)
	if err != nil {
		return err
	}
	s.log.Info("table loaded",
		"table", h.Name,
		"region", h.Region,
		"loaded", result.Loaded,
		"skipped", result.Skipped,
		"errors", result.Errors,
		"depth", result.Depth,
		"elapsed", s.clock.Now().Sub(started).Round(time.Millisecond))

	return s.store.SetStatus(ctx, &Status{Table: h.Name, Region: regionPtr(h.Region), Ver: ver})
}

// UpdateOptions configures a delta update run.
type UpdateOptions struct {
	// Src, when set, is a directory of delta archives to apply instead of
	// downloading them.
	Src     string
	SkipBad bool
}

// Update applies every published delta newer than the current watermark.
func (s *Service) Update(ctx context.Context, opts UpdateOptions) error {
	if err := s.RefreshVersions(ctx); err != nil {
		return err
	}

	startMin, ok, err := s.store.MinStatusVersion(ctx, s.Tracked())
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoDataLoaded
	}
	versions, err := s.store.VersionsAfter(ctx, startMin)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		s.log.Info("already up to date", "ver", startMin)
		return nil
	}

	var manual map[int]string
	if opts.Src != "" {
		manual, err = s.mapManualSources(ctx, opts.Src)
		if err != nil {
			return err
		}
	}

	applied := false
	for _, version := range versions {
		src := ""
		if manual != nil {
			var found bool
			if src, found = manual[version.Ver]; !found {
				if applied {
					if err := s.FixData(ctx, startMin); err != nil {
						return err
					}
				}
				return &NoFileForVersionError{Ver: version.Ver}
			}
		} else {
			if version.DeltaXMLURL == nil {
				s.log.Warn("version has no delta dump, skipping", "ver", version.Ver)
				continue
			}
			if src, err = s.fetch(ctx, *version.DeltaXMLURL); err != nil {
				return err
			}
		}
		if err := s.applyVersion(ctx, src, version, opts.SkipBad); err != nil {
			if applied {
				if fixErr := s.FixData(ctx, startMin); fixErr != nil {
					s.log.Error("fixing data after failed update", "error", fixErr)
				}
			}
			return err
		}
		applied = true
	}
	return s.FixData(ctx, startMin)
}

// applyVersion runs one delta dump through the updater, table by table.
func (s *Service) applyVersion(ctx context.Context, src string, version *Version, skipBad bool) error {
	s.log.Info("applying version", "ver", version.Ver, "src", src)
	list, err := s.resolver.Resolve(ctx, src, version.Ver, s.opts.Regions, s.Tracked())
	if err != nil {
		return err
	}
	defer list.Close()

	updater := NewUpdater(s.store, s.log, s.validators, s.opts.Limit)
	handles := list.Tables()

	for _, name := range s.Tracked() {
		for _, h := range handles[name] {
			status, err := s.store.GetStatus(ctx, h.Name, regionPtr(h.Region))
			if err != nil {
				return err
			}
			if status != nil && status.Ver >= version.Ver {
				continue
			}

			it, err := list.Open(h, version.Ver, s.filters)
			if err != nil {
				return err
			}
			result, err := updater.Update(ctx, Tables[h.Name], it)
			it.Close()
			if err != nil {
				if errors.Is(err, ErrBadTable) && skipBad {
					s.log.Error("bad table file skipped", "table", h.Name, "file", h.FileName, "error", err)
					continue
				}
				return err
			}
			s.log.Info("table updated",
				"table", h.Name,
				"region", h.Region,
				"ver", version.Ver,
				"created", result.Created,
				"updated", result.Updated,
				"skipped", result.Skipped,
				"errors", result.Errors)

			if err := s.store.SetStatus(ctx, &Status{Table: h.Name, Region: regionPtr(h.Region), Ver: version.Ver}); err != nil {
				return err
			}
		}
	}
	return nil
}

// mapManualSources maps a directory of delta archives to the versions they
// contain, keyed by each archive's own dump date.
func (s *Service) mapManualSources(ctx context.Context, dir string) (map[int]string, error) {
	children, err := s.resolver.List(ctx, dir)
	if err != nil {
		return nil, err
	}
	sources := make(map[int]string, len(children))
	for _, child := range children {
		list, err := s.resolver.Resolve(ctx, child, 0, s.opts.Regions, s.Tracked())
		if err != nil {
			s.log.Warn("unreadable source skipped", "src", child, "error", err)
			continue
		}
		version, err := s.versionOf(ctx, list)
		list.Close()
		if err != nil {
			s.log.Warn("source maps to no version, skipped", "src", child, "error", err)
			continue
		}
		sources[version.Ver] = child
	}
	return sources, nil
}

// FixData runs the post-import repair pass: tree version propagation, then
// inactive row removal, then orphan removal.
func (s *Service) FixData(ctx context.Context, minVer int) error {
	s.log.Info("fixing data", "min_ver", minVer)
	referring := s.referringTables()
	if err := s.store.UpdateTreeVer(ctx, referring, minVer); err != nil {
		return fmt.Errorf("update tree versions: %w", err)
	}
	if err := s.store.RemoveNotActive(ctx, s.flaggedTables()); err != nil {
		return fmt.Errorf("remove inactive rows: %w", err)
	}
	if err := s.store.RemoveOrphans(ctx, referring); err != nil {
		return fmt.Errorf("remove orphans: %w", err)
	}
	return nil
}

// referringTables returns tracked tables that point at object tables.
func (s *Service) referringTables() []TableName {
	var tables []TableName
	for _, name := range s.Tracked() {
		if len(Tables[name].Refs) > 0 {
			tables = append(tables, name)
		}
	}
	return tables
}

// flaggedTables returns tracked tables whose inactive rows get purged.
func (s *Service) flaggedTables() []TableName {
	retain := make(map[TableName]bool, len(s.opts.RetainInactive))
	for _, name := range s.opts.RetainInactive {
		retain[name] = true
	}
	var tables []TableName
	for _, name := range s.Tracked() {
		if Tables[name].HasIsActive && !retain[name] {
			tables = append(tables, name)
		}
	}
	return tables
}

// RefreshVersions fetches the published version list into the store.
func (s *Service) RefreshVersions(ctx context.Context) error {
	versions, err := s.versions.FetchVersions(ctx)
	if err != nil {
		return fmt.Errorf("fetch version list: %w", err)
	}
	for _, version := range versions {
		if err := s.store.UpsertVersion(ctx, version); err != nil {
			return err
		}
	}
	s.log.Info("version list refreshed", "count", len(versions))
	return nil
}

// Statuses returns the current per-table watermarks.
func (s *Service) Statuses(ctx context.Context) ([]*Status, error) {
	return s.store.ListStatuses(ctx)
}

// checkTypeConfig verifies, once the dictionaries are loaded, that every
// configured house type id and every tracked parameter type id actually
// exists and is active.
func (s *Service) checkTypeConfig(ctx context.Context) error {
	if len(s.opts.HouseTypes) > 0 && tracked(s.statsTables, TableHouseType) {
		active, err := s.store.ActiveTypeIDs(ctx, Tables[TableHouseType])
		if err != nil {
			return err
		}
		for _, id := range s.opts.HouseTypes {
			if !active[id] {
				return fmt.Errorf("configured house type %d is missing or inactive", id)
			}
		}
	}
	if tracked(s.statsTables, TableParamType) {
		active, err := s.store.ActiveTypeIDs(ctx, Tables[TableParamType])
		if err != nil {
			return err
		}
		for name := range ParamMap {
			for id := range ParamTypeIDs(name) {
				if !active[int64(id)] {
					return fmt.Errorf("parameter type %d for %s is missing or inactive", id, name)
				}
			}
		}
	}
	return nil
}

func tracked(tables []TableName, name TableName) bool {
	for _, t := range tables {
		if t == name {
			return true
		}
	}
	return false
}

// versionOf maps a resolved source to a known version via its dump date.
func (s *Service) versionOf(ctx context.Context, list TableList) (*Version, error) {
	if list.Ver() != 0 {
		return &Version{Ver: list.Ver()}, nil
	}
	date, err := list.DumpDate()
	if err != nil {
		return nil, err
	}
	version, err := s.store.NearestVersionByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, fmt.Errorf("no known version for dump dated %s", date.Format("2006-01-02"))
	}
	return version, nil
}

// fetch downloads src when it is a URL, returning a local path either way.
func (s *Service) fetch(ctx context.Context, src string) (string, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return src, nil
	}
	s.log.Info("downloading", "url", src)
	path, err := s.downloader.Download(ctx, src, s.opts.TempDir)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", src, err)
	}
	return path, nil
}

func regionPtr(region string) *string {
	if region == "" {
		return nil
	}
	return &region
}
