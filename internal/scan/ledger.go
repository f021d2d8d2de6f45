package scan

// EmployeeKey identifies an employee across manifests and reports: by Drive
// folder id when known, otherwise by normalized name.
func EmployeeKey(e *EmployeeReport) string {
	if e.EmployeeID != "" {
		return "id:" + e.EmployeeID
	}
	return "name:" + NormalizeName(e.Employee)
}

// UpsertItem replaces the item with the same file id or appends it. Items
// without a file id are always appended.
func UpsertItem(items []FileItem, item FileItem) []FileItem {
	if item.FileID == "" {
		return append(items, item)
	}
	for i := range items {
		if items[i].FileID == item.FileID {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

// Ledger accumulates per-employee results for a batch run. It keeps
// insertion order so reports are stable between flushes.
type Ledger struct {
	byKey map[string]*EmployeeReport
	keys  []string
}

// NewLedger seeds a ledger from manifest employees. Included lists start
// empty so they only hold processed documents; skipped files and excluded
// folders are carried over.
func NewLedger(employees []EmployeeReport) *Ledger {
	l := &Ledger{byKey: map[string]*EmployeeReport{}}
	for i := range employees {
		emp := &employees[i]
		l.set(EmployeeKey(emp), &EmployeeReport{
			Employee:        emp.DisplayName(),
			EmployeeID:      emp.EmployeeID,
			Included:        []FileItem{},
			Skipped:         append([]FileItem{}, emp.Skipped...),
			ExcludedFolders: append([]ExcludedFolder{}, emp.ExcludedFolders...),
		})
	}
	return l
}

func (l *Ledger) set(key string, e *EmployeeReport) {
	if _, ok := l.byKey[key]; !ok {
		l.keys = append(l.keys, key)
	}
	l.byKey[key] = e
}

func (l *Ledger) ensure(key, name, id string, excluded []ExcludedFolder) *EmployeeReport {
	if e, ok := l.byKey[key]; ok {
		return e
	}
	if name == "" {
		name = "unknown"
	}
	e := &EmployeeReport{
		Employee:        name,
		EmployeeID:      id,
		Included:        []FileItem{},
		Skipped:         []FileItem{},
		ExcludedFolders: append([]ExcludedFolder{}, excluded...),
	}
	l.set(key, e)
	return e
}

func (l *Ledger) nameIndex() map[string]string {
	idx := make(map[string]string, len(l.keys))
	for _, k := range l.keys {
		idx[NormalizeName(l.byKey[k].Employee)] = k
	}
	return idx
}

// Merge folds a previous report into the ledger so a rerun can resume. Both
// the employees shape and the legacy files shape are understood; employees
// whose key is unknown are matched by normalized name before being added.
func (l *Ledger) Merge(report *Manifest) {
	if report == nil {
		return
	}
	idx := l.nameIndex()

	if report.Employees != nil {
		for i := range report.Employees {
			emp := &report.Employees[i]
			key := EmployeeKey(emp)
			if _, ok := l.byKey[key]; !ok {
				if k, ok := idx[NormalizeName(emp.DisplayName())]; ok {
					key = k
				}
			}
			target := l.ensure(key, emp.DisplayName(), emp.EmployeeID, emp.ExcludedFolders)
			for _, item := range emp.Included {
				target.Included = UpsertItem(target.Included, item)
			}
			for _, item := range emp.Skipped {
				target.Skipped = UpsertItem(target.Skipped, item)
			}
		}
		return
	}

	for _, res := range report.Files {
		name := res.Employee
		if name == "" {
			name = "unknown"
		}
		key, ok := idx[NormalizeName(name)]
		if !ok {
			key = "name:" + NormalizeName(name)
		}
		target := l.ensure(key, name, "", nil)
		l.apply(target, res)
	}
}

// Record folds one processed document into its employee.
func (l *Ledger) Record(res Result) {
	key := "name:" + NormalizeName(res.Employee)
	if res.EmployeeID != "" {
		key = "id:" + res.EmployeeID
	}
	l.apply(l.ensure(key, res.Employee, res.EmployeeID, nil), res)
}

func (l *Ledger) apply(target *EmployeeReport, res Result) {
	if res.Status == StatusSuccess {
		target.Included = UpsertItem(target.Included, FileItem{
			FileID:   res.FileID,
			FileName: res.FileName,
			Outputs:  res.Outputs,
		})
		return
	}
	target.Skipped = UpsertItem(target.Skipped, FileItem{
		FileID:   res.FileID,
		FileName: res.FileName,
		Reason:   res.Reason,
	})
}

// CachedIDs returns the file ids already included or skipped. Documents with
// these ids are not processed again.
func (l *Ledger) CachedIDs() map[string]struct{} {
	cached := map[string]struct{}{}
	for _, k := range l.keys {
		e := l.byKey[k]
		for _, items := range [][]FileItem{e.Included, e.Skipped} {
			for _, item := range items {
				if item.FileID != "" {
					cached[item.FileID] = struct{}{}
				}
			}
		}
	}
	return cached
}

// Finalize lists employees in manifest order, then any others in insertion
// order, with counts recomputed.
func (l *Ledger) Finalize(order []EmployeeReport) []EmployeeReport {
	out := make([]EmployeeReport, 0, len(l.keys))
	seen := map[string]bool{}
	for i := range order {
		key := EmployeeKey(&order[i])
		e, ok := l.byKey[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		e.recount()
		out = append(out, *e)
	}
	for _, key := range l.keys {
		if seen[key] {
			continue
		}
		seen[key] = true
		e := l.byKey[key]
		e.recount()
		out = append(out, *e)
	}
	return out
}
