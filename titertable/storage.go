package titertable

import "github.com/acorg/acmacs-chart-n/titer"

// storage is the cell-access contract shared by the dense and sparse
// backings. Both leave an absent cell reading as titer.DontCareTiter().
type storage interface {
	rows() int
	cols() int
	at(a, s int) titer.Titer
	set(a, s int, t titer.Titer)
	clone() storage
}

// denseStorage holds one titer.Titer per cell, row-major, matching
// lvlath/matrix/dense.go's flat-slice layout.
type denseStorage struct {
	r, c int
	data []titer.Titer
}

func newDenseStorage(r, c int) *denseStorage {
	return &denseStorage{r: r, c: c, data: make([]titer.Titer, r*c)}
}

func (d *denseStorage) rows() int { return d.r }
func (d *denseStorage) cols() int { return d.c }

func (d *denseStorage) at(a, s int) titer.Titer { return d.data[a*d.c+s] }

func (d *denseStorage) set(a, s int, t titer.Titer) { d.data[a*d.c+s] = t }

func (d *denseStorage) clone() storage {
	out := &denseStorage{r: d.r, c: d.c, data: make([]titer.Titer, len(d.data))}
	copy(out.data, d.data)

	return out
}

// sparseStorage keeps only present (non-DontCare) titers, keyed by
// (antigen, serum), in the map-of-map idiom lvlath/core/adjacency_list.go
// uses for its edge sets — a dense grid never materializes.
type sparseStorage struct {
	r, c  int
	cells map[int]map[int]titer.Titer
}

func newSparseStorage(r, c int) *sparseStorage {
	return &sparseStorage{r: r, c: c, cells: make(map[int]map[int]titer.Titer)}
}

func (s *sparseStorage) rows() int { return s.r }
func (s *sparseStorage) cols() int { return s.c }

func (s *sparseStorage) at(a, serum int) titer.Titer {
	row, ok := s.cells[a]
	if !ok {
		return titer.DontCareTiter()
	}
	t, ok := row[serum]
	if !ok {
		return titer.DontCareTiter()
	}

	return t
}

func (s *sparseStorage) set(a, serum int, t titer.Titer) {
	if t.IsDontCare() {
		if row, ok := s.cells[a]; ok {
			delete(row, serum)
			if len(row) == 0 {
				delete(s.cells, a)
			}
		}

		return
	}
	row, ok := s.cells[a]
	if !ok {
		row = make(map[int]titer.Titer)
		s.cells[a] = row
	}
	row[serum] = t
}

func (s *sparseStorage) clone() storage {
	out := &sparseStorage{r: s.r, c: s.c, cells: make(map[int]map[int]titer.Titer, len(s.cells))}
	for a, row := range s.cells {
		newRow := make(map[int]titer.Titer, len(row))
		for serum, t := range row {
			newRow[serum] = t
		}
		out.cells[a] = newRow
	}

	return out
}
