package practice

import (
	"context"
	"fmt"

	"github.com/example/drill/internal/quiz"
	"github.com/example/drill/internal/sets"
	"github.com/example/drill/pkg/models"
)

const initialEstimate = 0.5

// IngestReport counts what an ingestion changed
type IngestReport struct {
	Sets            int
	ItemsAdded      int
	ItemsSkipped    int
	MembersAdded    int
	UnionsRefreshed int // stored unions expanded again
}

// Ingest stores a batch of descriptors. Sets are processed in dependency order so
// unions are expanded after the sets they are built from. Items already stored
// under the same family and name are left untouched.
func (s *Service) Ingest(ctx context.Context, descs []quiz.Descriptor) (IngestReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report IngestReport
	batch := make(map[string]quiz.Descriptor, len(descs))
	entries := make(map[string][]quiz.Entry, len(descs))
	deps := make(map[string][]string)

	for _, d := range descs {
		if _, dup := batch[d.Name]; dup {
			return report, fmt.Errorf("%w: set %q given twice", quiz.ErrInvalidDescriptor, d.Name)
		}
		if prev, ok := s.descriptors[d.Name]; ok && prev.kind != d.Kind {
			return report, fmt.Errorf("%w: set %q is stored as %s, not %s", quiz.ErrInvalidDescriptor, d.Name, prev.kind, d.Kind)
		}
		e, err := d.Entries()
		if err != nil {
			return report, err
		}
		batch[d.Name] = d
		entries[d.Name] = e
		deps[d.Name] = d.Dependencies()
	}
	// Stored sets can be referenced. Stored unions keep their dependencies so they
	// are expanded again when a set they are built from grows.
	for name, d := range s.descriptors {
		if _, ok := deps[name]; !ok {
			deps[name] = d.dependencies()
		}
	}
	for name := range s.sets {
		if _, ok := deps[name]; !ok {
			deps[name] = nil
		}
	}

	order, err := sets.Order(deps)
	if err != nil {
		return report, err
	}

	touched := make(map[string]bool, len(order))
	for _, name := range order {
		d, ok := batch[name]
		if !ok {
			stored := s.descriptors[name]
			if stored.kind != quiz.KindUnion || !anyOf(stored.dependencies(), touched) {
				continue
			}
			if err := s.expandUnion(ctx, name, stored.dependencies(), &report); err != nil {
				return report, err
			}
			touched[name] = true
			report.UnionsRefreshed++
			continue
		}

		if err := s.saveDescriptor(ctx, d); err != nil {
			return report, err
		}
		report.Sets++

		if d.Kind.Leaf() {
			err = s.ingestLeaf(ctx, d, entries[name], &report)
		} else {
			err = s.expandUnion(ctx, d.Name, d.Dependencies(), &report)
		}
		if err != nil {
			return report, err
		}
		touched[name] = true
	}

	s.logger.Info("ingested set descriptors",
		"sets", report.Sets,
		"items_added", report.ItemsAdded,
		"items_skipped", report.ItemsSkipped,
		"members_added", report.MembersAdded,
		"unions_refreshed", report.UnionsRefreshed)
	return report, nil
}

func (s *Service) saveDescriptor(ctx context.Context, d quiz.Descriptor) error {
	data, err := quiz.EncodeSettings(d.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings of %q: %w", d.Name, err)
	}
	if err := s.store.SaveSetDescriptor(ctx, models.SetDescriptor{Name: d.Name, Kind: string(d.Kind), Data: data}); err != nil {
		return err
	}
	s.descriptors[d.Name] = descriptor{kind: d.Kind, settings: d.Settings}
	return nil
}

func (s *Service) ingestLeaf(ctx context.Context, d quiz.Descriptor, entries []quiz.Entry, report *IngestReport) error {
	for _, e := range entries {
		id, exists := s.byName[d.Name][e.Name]
		if exists {
			report.ItemsSkipped++
		} else {
			item := &models.Item{
				Family:    d.Name,
				Name:      e.Name,
				Data:      e.Data,
				Estimate:  initialEstimate,
				CreatedAt: s.now().UTC(),
			}
			if err := s.store.InsertItem(ctx, item); err != nil {
				return err
			}
			if err := s.addItem(item); err != nil {
				return err
			}
			s.estimator.Register(item.ID)
			id = item.ID
			report.ItemsAdded++
		}

		added, err := s.addItemToSet(ctx, d.Name, id)
		if err != nil {
			return err
		}
		if added {
			report.MembersAdded++
		}
	}
	return nil
}

// expandUnion adds the members of deps to the union, in dependency order
func (s *Service) expandUnion(ctx context.Context, name string, deps []string, report *IngestReport) error {
	for _, id := range sets.Union(deps, s.sets) {
		added, err := s.addItemToSet(ctx, name, id)
		if err != nil {
			return err
		}
		if added {
			report.MembersAdded++
		}
	}
	return nil
}

// resolveUnions brings every stored union up to date with the sets it is built
// from. It runs once when the service loads.
func (s *Service) resolveUnions(ctx context.Context) (IngestReport, error) {
	var report IngestReport
	deps := make(map[string][]string, len(s.descriptors)+len(s.sets))
	for name, d := range s.descriptors {
		deps[name] = d.dependencies()
	}
	for name := range s.sets {
		if _, ok := deps[name]; !ok {
			deps[name] = nil
		}
	}

	order, err := sets.Order(deps)
	if err != nil {
		return report, err
	}
	for _, name := range order {
		d := s.descriptors[name]
		if d.kind != quiz.KindUnion {
			continue
		}
		if err := s.expandUnion(ctx, name, d.dependencies(), &report); err != nil {
			return report, err
		}
		report.UnionsRefreshed++
	}
	return report, nil
}

func anyOf(names []string, in map[string]bool) bool {
	for _, n := range names {
		if in[n] {
			return true
		}
	}
	return false
}
