// SPDX-License-Identifier: Apache-2.0

package document

// reconcile implements the §4.4 diff algorithm: compare old and new
// statement lists position by position. Identical text at the same
// index retains the old id and parse cache, just shifting its range.
// A text change at the same index retires the old statement and mints a
// new id for the replacement. Extra statements at either tail are
// respectively added or retired.
func reconcile(old, new []Statement) (ChangeEvent, []Statement) {
	var event ChangeEvent
	reconciled := make([]Statement, len(new))

	common := len(old)
	if len(new) < common {
		common = len(new)
	}

	for i := 0; i < common; i++ {
		if old[i].Text == new[i].Text {
			kept := old[i]
			kept.Range = new[i].Range
			reconciled[i] = kept
			if old[i].Range != new[i].Range {
				event.Shifted = append(event.Shifted, kept.ID)
			}
			continue
		}
		event.Retired = append(event.Retired, old[i].ID)
		reconciled[i] = new[i]
		event.Added = append(event.Added, new[i])
	}

	for i := common; i < len(old); i++ {
		event.Retired = append(event.Retired, old[i].ID)
	}
	for i := common; i < len(new); i++ {
		reconciled[i] = new[i]
		event.Added = append(event.Added, new[i])
	}

	return event, reconciled
}
