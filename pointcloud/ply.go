package pointcloud

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var plyVertexProperties = []string{"x", "y", "z", "red", "green", "blue"}

// WriteToPLY writes the cloud as an ASCII PLY file: one vertex element with float x, y, z,
// red, green and blue properties, colors in [0, 1], one line per point in cloud order.
func WriteToPLY(pc *PointCloud, out io.Writer) error {
	w := bufio.NewWriter(out)
	if _, err := fmt.Fprintf(w, "ply\nformat ascii 1.0\nelement vertex %d\n", pc.Size()); err != nil {
		return err
	}
	for _, prop := range plyVertexProperties {
		if _, err := fmt.Fprintf(w, "property float %s\n", prop); err != nil {
			return err
		}
	}
	if _, err := w.WriteString("end_header\n"); err != nil {
		return err
	}

	buf := make([]byte, 0, 128)
	var err error
	pc.Iterate(0, 0, func(p Point) bool {
		buf = buf[:0]
		for i, v := range []float64{p.Position.X, p.Position.Y, p.Position.Z, p.Color.R, p.Color.G, p.Color.B} {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendFloat(buf, v, 'g', -1, 32)
		}
		buf = append(buf, '\n')
		_, err = w.Write(buf)
		return err == nil
	})
	if err != nil {
		return err
	}
	return w.Flush()
}

type plyProperty struct {
	name    string
	integer bool
}

type plyHeader struct {
	vertices   int
	properties []plyProperty
}

func (h *plyHeader) index(name string) int {
	for i, prop := range h.properties {
		if prop.name == name {
			return i
		}
	}
	return -1
}

func readPLYHeader(in *bufio.Reader) (*plyHeader, error) {
	header := &plyHeader{vertices: -1}
	lineNum := 0
	for {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, errors.Wrapf(err, "error reading ply header line %d", lineNum)
		}
		lineNum++
		line = strings.TrimSpace(line)
		tokens := strings.Fields(line)
		if lineNum == 1 {
			if line != "ply" {
				return nil, errors.Errorf("not a ply file, first line is %q", line)
			}
			continue
		}
		if len(tokens) == 0 {
			continue
		}
		switch tokens[0] {
		case "format":
			if len(tokens) != 3 || tokens[1] != "ascii" {
				return nil, errors.Errorf("unsupported ply format %q", line)
			}
		case "comment", "obj_info":
		case "element":
			if len(tokens) != 3 || tokens[1] != "vertex" {
				return nil, errors.Errorf("unsupported ply element %q", line)
			}
			header.vertices, err = strconv.Atoi(tokens[2])
			if err != nil || header.vertices < 0 {
				return nil, errors.Errorf("invalid ply vertex count %q", tokens[2])
			}
		case "property":
			if header.vertices < 0 {
				return nil, errors.Errorf("ply property before vertex element: %q", line)
			}
			if len(tokens) != 3 {
				return nil, errors.Errorf("unsupported ply property %q", line)
			}
			prop := plyProperty{name: tokens[2]}
			switch tokens[1] {
			case "float", "float32", "double", "float64":
			case "uchar", "uint8", "char", "int8", "ushort", "uint16", "short", "int16", "int", "int32", "uint", "uint32":
				prop.integer = true
			default:
				return nil, errors.Errorf("unsupported ply property type %q", tokens[1])
			}
			header.properties = append(header.properties, prop)
		case "end_header":
			if header.vertices < 0 {
				return nil, errors.New("ply header has no vertex element")
			}
			for _, name := range plyVertexProperties[:3] {
				if header.index(name) < 0 {
					return nil, errors.Errorf("ply vertex element has no %q property", name)
				}
			}
			return header, nil
		default:
			return nil, errors.Errorf("unexpected ply header line %q", line)
		}
	}
}

// ReadPLY reads an ASCII PLY file with a single vertex element. Positions come from the x, y
// and z properties; red, green and blue are optional. Integer color properties are taken to be
// 8 bit and normalized to [0, 1].
func ReadPLY(inRaw io.Reader) (*PointCloud, error) {
	in := bufio.NewReader(inRaw)
	header, err := readPLYHeader(in)
	if err != nil {
		return nil, err
	}

	idx := make([]int, len(plyVertexProperties))
	for i, name := range plyVertexProperties {
		idx[i] = header.index(name)
	}

	pc := newForDeclaredSize(header.vertices)
	values := make([]float64, len(header.properties))
	for i := 0; i < header.vertices; i++ {
		line, err := in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return nil, errors.Wrapf(err, "error reading ply vertex %d", i)
		}
		tokens := strings.Fields(line)
		if len(tokens) != len(header.properties) {
			return nil, errors.Errorf("ply vertex %d has %d values, expected %d", i, len(tokens), len(header.properties))
		}
		for j, token := range tokens {
			values[j], err = strconv.ParseFloat(token, 64)
			if err != nil {
				return nil, errors.Errorf("invalid ply vertex %d value %q", i, token)
			}
		}

		var channels [3]float64
		for c := 0; c < 3; c++ {
			j := idx[3+c]
			if j < 0 {
				continue
			}
			channels[c] = values[j]
			if header.properties[j].integer {
				channels[c] /= 255
			}
		}
		pc.Append(NewPoint(values[idx[0]], values[idx[1]], values[idx[2]],
			RGB{R: channels[0], G: channels[1], B: channels[2]}))
	}
	return pc, nil
}
