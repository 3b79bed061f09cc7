package chartio

import (
	"fmt"
	"math"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/matrix"
	"github.com/acorg/acmacs-chart-n/titertable"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// document is the on-disk shape: every field the CORE's adapter contract
// lists as required from an import adapter, plus
// whatever optional projections/plot spec the chart carries.
type document struct {
	Info        infoDoc         `json:"info"`
	Antigens    []antigenDoc    `json:"antigens"`
	Sera        []serumDoc      `json:"sera"`
	Table       tableDoc        `json:"table"`
	ForcedBases []float64       `json:"forced_column_bases,omitempty"`
	PlotSpec    *plotSpecDoc    `json:"plot_spec,omitempty"`
	Projections []projectionDoc `json:"projections,omitempty"`
}

type infoDoc struct {
	Virus       string   `json:"virus,omitempty"`
	Subtype     string   `json:"subtype,omitempty"`
	Lab         string   `json:"lab,omitempty"`
	Assay       string   `json:"assay,omitempty"`
	DateMin     string   `json:"date_min,omitempty"`
	DateMax     string   `json:"date_max,omitempty"`
	SourceTable []string `json:"source_table,omitempty"`
}

type antigenDoc struct {
	Name        string   `json:"name"`
	Passage     string   `json:"passage,omitempty"`
	Reassortant string   `json:"reassortant,omitempty"`
	Annotations []string `json:"annotations,omitempty"`
	Lineage     string   `json:"lineage,omitempty"`
	Date        string   `json:"date,omitempty"`
	LabIDs      []string `json:"lab_ids,omitempty"`
	Clades      []string `json:"clades,omitempty"`
	Reference   bool     `json:"reference,omitempty"`
}

type serumDoc struct {
	Name               string   `json:"name"`
	Passage            string   `json:"passage,omitempty"`
	Reassortant        string   `json:"reassortant,omitempty"`
	Annotations        []string `json:"annotations,omitempty"`
	Lineage            string   `json:"lineage,omitempty"`
	SerumID            string   `json:"serum_id,omitempty"`
	SerumSpecies       string   `json:"serum_species,omitempty"`
	HomologousAntigens []int    `json:"homologous_antigens,omitempty"`
}

type tableDoc struct {
	Base   [][]string   `json:"base"`
	Layers [][][]string `json:"layers,omitempty"`
}

type plotSpecDoc struct {
	DrawingOrder []int             `json:"drawing_order,omitempty"`
	Styles       map[string]string `json:"styles,omitempty"`
}

type transformationDoc struct {
	Matrix      [][]float64 `json:"matrix,omitempty"`
	Translation []float64   `json:"translation,omitempty"`
}

type projectionDoc struct {
	Layout                   [][]*float64      `json:"layout"`
	MinimumColumnBasis       string            `json:"minimum_column_basis,omitempty"`
	ForcedColumnBases        []float64         `json:"forced_column_bases,omitempty"`
	DodgyTiterIsRegular      bool              `json:"dodgy_titer_is_regular,omitempty"`
	StressDiffToStop         *float64          `json:"stress_diff_to_stop,omitempty"`
	Unmovable                []int             `json:"unmovable,omitempty"`
	Disconnected             []int             `json:"disconnected,omitempty"`
	UnmovableInLastDimension []int             `json:"unmovable_in_last_dimension,omitempty"`
	AvidityAdjusts           map[string]float64 `json:"avidity_adjusts,omitempty"`
	Transformation           transformationDoc `json:"transformation,omitempty"`
	StoredStress             *float64          `json:"stored_stress,omitempty"`
}

// Marshal exports c to its JSON document form.
func Marshal(c *chart.Chart) ([]byte, error) {
	doc, err := Export(c)
	if err != nil {
		return nil, fmt.Errorf("chartio.Marshal: %w", err)
	}
	data, err := jsonAPI.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("chartio.Marshal: %w", err)
	}

	return data, nil
}

// Unmarshal imports a Chart from its JSON document form.
func Unmarshal(data []byte) (*chart.Chart, error) {
	var doc document
	if err := jsonAPI.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("chartio.Unmarshal: %w", err)
	}

	c, err := Import(&doc)
	if err != nil {
		return nil, fmt.Errorf("chartio.Unmarshal: %w", err)
	}

	return c, nil
}

// Export builds the document form of c.
func Export(c *chart.Chart) (*document, error) {
	antigens := c.Antigens()
	sera := c.Sera()

	agDocs := make([]antigenDoc, len(antigens))
	for i, a := range antigens {
		agDocs[i] = antigenDoc{
			Name:        a.Name,
			Passage:     a.Passage,
			Reassortant: a.Reassortant,
			Annotations: a.Annotations,
			Lineage:     a.Lineage.String(),
			Date:        a.Date,
			LabIDs:      a.LabIDs,
			Clades:      a.Clades,
			Reference:   a.Reference,
		}
	}

	srDocs := make([]serumDoc, len(sera))
	for i, s := range sera {
		srDocs[i] = serumDoc{
			Name:               s.Name,
			Passage:            s.Passage,
			Reassortant:        s.Reassortant,
			Annotations:        s.Annotations,
			Lineage:            s.Lineage.String(),
			SerumID:            s.SerumID,
			SerumSpecies:       s.SerumSpecies,
			HomologousAntigens: s.HomologousAntigens,
		}
	}

	tableDoc, err := exportTable(c.Table())
	if err != nil {
		return nil, err
	}

	info := c.Info()
	ps := c.PlotSpec()

	projDocs := make([]projectionDoc, c.NumberOfProjections())
	for i := 0; i < c.NumberOfProjections(); i++ {
		p, err := c.Projection(i)
		if err != nil {
			return nil, err
		}
		pd, err := exportProjection(p)
		if err != nil {
			return nil, err
		}
		projDocs[i] = pd
	}

	return &document{
		Info: infoDoc{
			Virus:       info.Virus,
			Subtype:     info.Subtype,
			Lab:         info.Lab,
			Assay:       info.Assay,
			DateMin:     info.DateMin,
			DateMax:     info.DateMax,
			SourceTable: info.SourceTable,
		},
		Antigens:    agDocs,
		Sera:        srDocs,
		Table:       tableDoc,
		ForcedBases: c.ForcedColumnBases(),
		PlotSpec:    &plotSpecDoc{DrawingOrder: ps.DrawingOrder, Styles: ps.Styles},
		Projections: projDocs,
	}, nil
}

// Import reconstructs a Chart from a document.
func Import(doc *document) (*chart.Chart, error) {
	if len(doc.Antigens) == 0 || len(doc.Sera) == 0 {
		return nil, fmt.Errorf("chartio.Import: %w", ErrMalformed)
	}

	antigens := make([]chart.Antigen, len(doc.Antigens))
	for i, a := range doc.Antigens {
		antigens[i] = chart.Antigen{
			Name:        a.Name,
			Passage:     a.Passage,
			Reassortant: a.Reassortant,
			Annotations: a.Annotations,
			Lineage:     parseLineage(a.Lineage),
			Date:        a.Date,
			LabIDs:      a.LabIDs,
			Clades:      a.Clades,
			Reference:   a.Reference,
		}
	}

	sera := make([]chart.Serum, len(doc.Sera))
	for i, s := range doc.Sera {
		sera[i] = chart.Serum{
			Name:               s.Name,
			Passage:            s.Passage,
			Reassortant:        s.Reassortant,
			Annotations:        s.Annotations,
			Lineage:            parseLineage(s.Lineage),
			SerumID:            s.SerumID,
			SerumSpecies:       s.SerumSpecies,
			HomologousAntigens: s.HomologousAntigens,
		}
	}

	table, err := importTable(doc.Table, len(antigens), len(sera))
	if err != nil {
		return nil, fmt.Errorf("chartio.Import: %w", err)
	}

	info := chart.Info{
		Virus:       doc.Info.Virus,
		Subtype:     doc.Info.Subtype,
		Lab:         doc.Info.Lab,
		Assay:       doc.Info.Assay,
		DateMin:     doc.Info.DateMin,
		DateMax:     doc.Info.DateMax,
		SourceTable: doc.Info.SourceTable,
	}

	c, err := chart.New(info, antigens, sera, table)
	if err != nil {
		return nil, fmt.Errorf("chartio.Import: %w", err)
	}

	if doc.ForcedBases != nil {
		if err := c.SetForcedColumnBases(doc.ForcedBases); err != nil {
			return nil, fmt.Errorf("chartio.Import: %w", err)
		}
	}
	if doc.PlotSpec != nil {
		c.SetPlotSpec(chart.PlotSpec{DrawingOrder: doc.PlotSpec.DrawingOrder, Styles: doc.PlotSpec.Styles})
	}

	for _, pd := range doc.Projections {
		p, err := importProjection(pd)
		if err != nil {
			return nil, fmt.Errorf("chartio.Import: %w", err)
		}
		if err := c.AddProjection(p); err != nil {
			return nil, fmt.Errorf("chartio.Import: %w", err)
		}
	}

	return c, nil
}

func exportTable(t *titertable.Table) (tableDoc, error) {
	nAg, nSr := t.NumberOfAntigens(), t.NumberOfSera()

	base := make([][]string, nAg)
	for a := 0; a < nAg; a++ {
		row := make([]string, nSr)
		for s := 0; s < nSr; s++ {
			v, err := t.BaseTiter(a, s)
			if err != nil {
				return tableDoc{}, err
			}
			row[s] = v.String()
		}
		base[a] = row
	}

	layers := make([][][]string, t.NumberOfLayers())
	for l := range layers {
		rows := make([][]string, nAg)
		for a := 0; a < nAg; a++ {
			row := make([]string, nSr)
			for s := 0; s < nSr; s++ {
				v, err := t.TiterOfLayer(l, a, s)
				if err != nil {
					return tableDoc{}, err
				}
				row[s] = v.String()
			}
			rows[a] = row
		}
		layers[l] = rows
	}

	return tableDoc{Base: base, Layers: layers}, nil
}

func importTable(doc tableDoc, nAg, nSr int) (*titertable.Table, error) {
	if len(doc.Base) != nAg {
		return nil, fmt.Errorf("table has %d antigen rows, want %d: %w", len(doc.Base), nAg, ErrMalformed)
	}
	table, err := titertable.NewDenseFromRows(doc.Base)
	if err != nil {
		return nil, err
	}
	if table.NumberOfSera() != nSr {
		return nil, fmt.Errorf("table has %d sera columns, want %d: %w", table.NumberOfSera(), nSr, ErrMalformed)
	}

	for _, layerRows := range doc.Layers {
		layer, err := titertable.NewDenseFromRows(layerRows)
		if err != nil {
			return nil, err
		}
		if err := table.AddLayer(layer); err != nil {
			return nil, err
		}
	}

	return table, nil
}

func exportProjection(p *chart.Projection) (projectionDoc, error) {
	layout, err := rowsToDoc(p.Layout())
	if err != nil {
		return projectionDoc{}, err
	}

	avidity := make(map[string]float64, len(p.AvidityAdjusts()))
	for k, v := range p.AvidityAdjusts() {
		avidity[strconv.Itoa(k)] = v
	}

	var stressDiff *float64
	if v, ok := p.StressDiffToStop(); ok {
		stressDiff = &v
	}
	var storedStress *float64
	if v, ok := p.StoredStress(); ok {
		storedStress = &v
	}

	t := p.Transformation()
	var td transformationDoc
	if t.Matrix != nil {
		rows, err := rowsToPlainDoc(t.Matrix)
		if err != nil {
			return projectionDoc{}, err
		}
		td.Matrix = rows
	}
	td.Translation = t.Translation

	return projectionDoc{
		Layout:                   layout,
		MinimumColumnBasis:       p.MinimumColumnBasis().String(),
		ForcedColumnBases:        p.ForcedColumnBases(),
		DodgyTiterIsRegular:      p.DodgyTiterIsRegular(),
		StressDiffToStop:         stressDiff,
		Unmovable:                p.UnmovablePoints(),
		Disconnected:             p.DisconnectedPoints(),
		UnmovableInLastDimension: p.UnmovableInLastDimensionPoints(),
		AvidityAdjusts:           avidity,
		Transformation:           td,
		StoredStress:             storedStress,
	}, nil
}

func importProjection(doc projectionDoc) (*chart.Projection, error) {
	layout, err := docToLayout(doc.Layout)
	if err != nil {
		return nil, err
	}

	var opts []chart.ProjectionOption
	mcb, err := titertable.ParseMinimumColumnBasis(doc.MinimumColumnBasis)
	if err != nil {
		return nil, err
	}
	opts = append(opts, chart.WithMinimumColumnBasis(mcb))
	if doc.ForcedColumnBases != nil {
		opts = append(opts, chart.WithForcedColumnBases(doc.ForcedColumnBases))
	}
	if doc.DodgyTiterIsRegular {
		opts = append(opts, chart.WithDodgyTiterIsRegular(true))
	}
	if doc.StressDiffToStop != nil {
		opts = append(opts, chart.WithStressDiffToStop(*doc.StressDiffToStop))
	}

	p := chart.NewProjectionFromLayout(layout, opts...)
	for _, i := range doc.Unmovable {
		p.SetUnmovable(i)
	}
	for _, i := range doc.Disconnected {
		p.SetDisconnected(i)
	}
	for _, i := range doc.UnmovableInLastDimension {
		p.SetUnmovableInLastDimension(i)
	}
	for k, v := range doc.AvidityAdjusts {
		i, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("avidity adjust key %q: %w", k, ErrMalformed)
		}
		p.SetAvidityAdjust(i, v)
	}

	if doc.Transformation.Matrix != nil || doc.Transformation.Translation != nil {
		var m *matrix.Dense
		if doc.Transformation.Matrix != nil {
			m, err = matrix.NewDenseFromRows(doc.Transformation.Matrix)
			if err != nil {
				return nil, err
			}
		}
		p.SetTransformation(chart.Transformation{Matrix: m, Translation: doc.Transformation.Translation})
	}
	if doc.StoredStress != nil {
		p.SetStoredStress(*doc.StoredStress)
	}

	return p, nil
}

func parseLineage(s string) chart.Lineage {
	switch s {
	case "Victoria":
		return chart.LineageVictoria
	case "Yamagata":
		return chart.LineageYamagata
	default:
		return chart.LineageUnknown
	}
}

// rowsToDoc converts a Layout to its pointer-per-coordinate JSON form: NaN
// (a disconnected point's marker) becomes a JSON null rather than an
// unmarshalable float.
func rowsToDoc(l *chart.Layout) ([][]*float64, error) {
	out := make([][]*float64, l.Rows())
	for i := 0; i < l.Rows(); i++ {
		row, err := l.Row(i)
		if err != nil {
			return nil, err
		}
		docRow := make([]*float64, len(row))
		for d, v := range row {
			if math.IsNaN(v) {
				continue
			}
			vv := v
			docRow[d] = &vv
		}
		out[i] = docRow
	}

	return out, nil
}

func rowsToPlainDoc(m *matrix.Dense) ([][]float64, error) {
	out := make([][]float64, m.Rows())
	for i := 0; i < m.Rows(); i++ {
		row, err := m.Row(i)
		if err != nil {
			return nil, err
		}
		out[i] = row
	}

	return out, nil
}

func docToLayout(rows [][]*float64) (*chart.Layout, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("projection layout is empty: %w", ErrMalformed)
	}
	dim := len(rows[0])
	out, err := matrix.NewDense(len(rows), dim)
	if err != nil {
		return nil, err
	}
	for i, docRow := range rows {
		row := make([]float64, dim)
		for d, v := range docRow {
			if v == nil {
				row[d] = math.NaN()
				continue
			}
			row[d] = *v
		}
		if err := out.SetRow(i, row); err != nil {
			return nil, err
		}
	}

	return out, nil
}
