package service

import (
	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
	"github.com/google/uuid"
)

// CalculateChanges diffs desired configuration against cluster state for one
// host. It is pure: anomalies are returned for the caller to log.
//
// Each dataset lands in at most one category:
//   - desired here, absent everywhere: creating
//   - desired here, primary here, size differs: resizing
//   - desired here, primary elsewhere or only a replica here: coming
//   - primary here, desired elsewhere: going (relocation wins over resize)
//   - not desired at all, held here: deleting
func CalculateChanges(hostname string, cluster domain.ClusterState, desired domain.DesiredConfiguration) (domain.DatasetChanges, []domain.Anomaly) {
	var (
		changes   domain.DatasetChanges
		anomalies []domain.Anomaly
	)

	local, _ := cluster.Node(hostname)

	for _, id := range referencedDatasets(cluster, desired) {
		manifestation, heldHere := local.Manifestation(id)
		primaryHere := heldHere && manifestation.Primary

		if holders := cluster.PrimaryHolders(id); len(holders) > 1 {
			anomalies = append(anomalies, domain.Anomaly{DatasetID: id, Primaries: holders})
		}

		want, isDesired := desired.Desired(id)
		if !isDesired {
			if heldHere {
				changes.Deleting = append(changes.Deleting, manifestation.Dataset)
			}
			continue
		}

		dataset, _ := desired.Dataset(id)

		if want.PrimaryHostname != hostname {
			if primaryHere {
				changes.Going = append(changes.Going, domain.DatasetHandoff{
					Dataset:  dataset,
					Hostname: want.PrimaryHostname,
				})
			}
			continue
		}

		switch {
		case primaryHere:
			if manifestation.Dataset.MaximumSize != want.MaximumSize {
				changes.Resizing = append(changes.Resizing, dataset)
			}
		case !cluster.HasManifestation(id):
			changes.Creating = append(changes.Creating, dataset)
		default:
			changes.Coming = append(changes.Coming, dataset)
		}
	}

	return changes, anomalies
}

// ExcludeLeased drops datasets leased on hostname from resizing, going and
// deleting. A dataset in use must not be resized, moved or destroyed.
func ExcludeLeased(changes domain.DatasetChanges, hostname string, desired domain.DesiredConfiguration) domain.DatasetChanges {
	if len(desired.Leases) == 0 {
		return changes
	}

	free := func(id uuid.UUID) bool { return !desired.IsLeasedOn(id, hostname) }

	filtered := domain.DatasetChanges{
		Creating: changes.Creating,
		Coming:   changes.Coming,
	}
	for _, d := range changes.Resizing {
		if free(d.DatasetID) {
			filtered.Resizing = append(filtered.Resizing, d)
		}
	}
	for _, h := range changes.Going {
		if free(h.Dataset.DatasetID) {
			filtered.Going = append(filtered.Going, h)
		}
	}
	for _, d := range changes.Deleting {
		if free(d.DatasetID) {
			filtered.Deleting = append(filtered.Deleting, d)
		}
	}
	return filtered
}

// referencedDatasets is every id named by the configuration or any node, ascending.
func referencedDatasets(cluster domain.ClusterState, desired domain.DesiredConfiguration) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, group := range [][]uuid.UUID{desired.DatasetIDs(), cluster.DatasetIDs()} {
		for _, id := range group {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	domain.SortIDs(ids)
	return ids
}
