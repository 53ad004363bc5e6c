package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	lzf "github.com/zhuyie/golzf"
)

// PCDType is the format of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = 0
	// PCDBinary binary format for pcd.
	PCDBinary PCDType = 1
	// PCDCompressed lzf compressed binary format for pcd, stored field by field.
	PCDCompressed PCDType = 2
)

const pcdCommentChar = "#"

var pcdHeaderFields = []string{"VERSION", "FIELDS", "SIZE", "TYPE", "COUNT", "WIDTH", "HEIGHT", "VIEWPOINT", "POINTS", "DATA"}

func colorToPCDInt(c RGB) int {
	r, g, b := c.RGB255()
	x := 0
	x |= int(r) << 16
	x |= int(g) << 8
	x |= int(b) << 0
	return x
}

func pcdIntToColor(c int) RGB {
	r := uint8(0xFF & (c >> 16))
	g := uint8(0xFF & (c >> 8))
	b := uint8(0xFF & (c >> 0))
	return NewRGB255(r, g, b)
}

// ToPCD writes the cloud as a version .7 PCD file with x y z rgb fields. Coordinates are
// written in meters and the color is packed into a single integer field, 8 bits per channel.
func ToPCD(pc *PointCloud, out io.Writer, outputType PCDType) error {
	var data string
	switch outputType {
	case PCDAscii:
		data = "ascii"
	case PCDBinary:
		data = "binary"
	case PCDCompressed:
		data = "binary_compressed"
	default:
		return errors.Errorf("unknown pcd type %d", outputType)
	}

	w := bufio.NewWriter(out)
	_, err := fmt.Fprintf(w, "VERSION .7\n"+
		"FIELDS x y z rgb\n"+
		"SIZE 4 4 4 4\n"+
		"TYPE F F F I\n"+
		"COUNT 1 1 1 1\n"+
		"WIDTH %d\n"+
		"HEIGHT %d\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n"+
		"DATA %s\n",
		pc.Size(),
		1,
		pc.Size(),
		data)
	if err != nil {
		return err
	}
	if err := writePCDData(pc, w, outputType); err != nil {
		return err
	}
	return w.Flush()
}

func writePCDData(pc *PointCloud, out io.Writer, pcdtype PCDType) error {
	if pcdtype == PCDCompressed {
		return writePCDCompressed(pc, out)
	}
	buf := make([]byte, 16)
	line := make([]byte, 0, 64)
	var err error
	pc.Iterate(0, 0, func(p Point) bool {
		c := colorToPCDInt(p.Color)
		switch pcdtype {
		case PCDBinary:
			binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(p.Position.X)))
			binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(p.Position.Y)))
			binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(p.Position.Z)))
			binary.LittleEndian.PutUint32(buf[12:], uint32(c))
			_, err = out.Write(buf)
		default:
			line = line[:0]
			for _, v := range []float64{p.Position.X, p.Position.Y, p.Position.Z} {
				line = strconv.AppendFloat(line, v, 'g', -1, 32)
				line = append(line, ' ')
			}
			line = strconv.AppendInt(line, int64(c), 10)
			line = append(line, '\n')
			_, err = out.Write(line)
		}
		return err == nil
	})
	return err
}

// lzfBound is the largest lzf output for n input bytes.
func lzfBound(n int) int {
	return n + n/16 + 64
}

// writePCDCompressed writes the x, y, z and rgb columns one after the other, lzf compressed
// and prefixed by the compressed and uncompressed sizes.
func writePCDCompressed(pc *PointCloud, out io.Writer) error {
	n := pc.Size()
	raw := make([]byte, 16*n)
	for i, p := range pc.Points() {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(float32(p.Position.X)))
		binary.LittleEndian.PutUint32(raw[4*(n+i):], math.Float32bits(float32(p.Position.Y)))
		binary.LittleEndian.PutUint32(raw[4*(2*n+i):], math.Float32bits(float32(p.Position.Z)))
		binary.LittleEndian.PutUint32(raw[4*(3*n+i):], uint32(colorToPCDInt(p.Color)))
	}

	compressed := make([]byte, lzfBound(len(raw)))
	compressedSize := 0
	if len(raw) > 0 {
		var err error
		compressedSize, err = lzf.Compress(raw, compressed)
		if err != nil {
			return errors.Wrap(err, "cannot compress pcd data")
		}
	}

	sizes := make([]byte, 8)
	binary.LittleEndian.PutUint32(sizes, uint32(compressedSize))
	binary.LittleEndian.PutUint32(sizes[4:], uint32(len(raw)))
	if _, err := out.Write(sizes); err != nil {
		return err
	}
	_, err := out.Write(compressed[:compressedSize])
	return err
}

type pcdHeader struct {
	fields []string
	size   []int
	points int
	data   PCDType
}

func parsePCDHeaderLine(line string, index int, header *pcdHeader) error {
	name := pcdHeaderFields[index]
	field, value, _ := strings.Cut(line, " ")
	if field != name {
		return errors.Errorf("line is supposed to start with %s but is %s", name, line)
	}
	tokens := strings.Fields(value)

	switch name {
	case "VERSION":
		if value != ".7" && value != "0.7" {
			return errors.Errorf("unsupported pcd version %s", value)
		}
	case "FIELDS":
		if value != "x y z rgb" && value != "x y z" {
			return errors.Errorf("unsupported pcd fields %s", value)
		}
		header.fields = tokens
	case "SIZE":
		if len(tokens) != len(header.fields) {
			return errors.New("unexpected number of fields in SIZE line")
		}
		header.size = make([]int, len(tokens))
		for i, token := range tokens {
			size, err := strconv.Atoi(token)
			if err != nil || size != 4 {
				return errors.Errorf("unsupported SIZE field %s", token)
			}
			header.size[i] = size
		}
	case "TYPE", "COUNT":
		if len(tokens) != len(header.fields) {
			return errors.Errorf("unexpected number of fields in %s line", name)
		}
	case "WIDTH", "HEIGHT", "VIEWPOINT":
	case "POINTS":
		points, err := strconv.Atoi(value)
		if err != nil || points < 0 {
			return errors.Errorf("invalid POINTS field %s", value)
		}
		header.points = points
	case "DATA":
		switch value {
		case "ascii":
			header.data = PCDAscii
		case "binary":
			header.data = PCDBinary
		case "binary_compressed":
			header.data = PCDCompressed
		default:
			return errors.Errorf("unsupported pcd data type %s", value)
		}
	}
	return nil
}

// ReadPCD reads a PCD file with x y z or x y z rgb fields in ascii, binary or binary_compressed form.
func ReadPCD(inRaw io.Reader) (*PointCloud, error) {
	header := pcdHeader{}
	in := bufio.NewReader(inRaw)
	headerLineCount := 0
	for headerLineCount < len(pcdHeaderFields) {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, errors.Wrapf(err, "error reading header line %d", headerLineCount)
		}
		line, _, _ = strings.Cut(line, pcdCommentChar)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := parsePCDHeaderLine(line, headerLineCount, &header); err != nil {
			return nil, err
		}
		headerLineCount++
	}

	switch header.data {
	case PCDAscii:
		return readPCDAscii(in, header)
	case PCDBinary:
		return readPCDBinary(in, header)
	case PCDCompressed:
		return readPCDCompressed(in, header)
	default:
		return nil, errors.Errorf("unsupported pcd data type %v", header.data)
	}
}

func readPCDAscii(in *bufio.Reader, header pcdHeader) (*PointCloud, error) {
	pc := newForDeclaredSize(header.points)
	values := make([]float64, len(header.fields))
	for i := 0; i < header.points; i++ {
		line, err := in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return nil, err
		}
		tokens := strings.Fields(line)
		if len(tokens) != len(header.fields) {
			return nil, errors.Errorf("unexpected number of fields in point %d", i)
		}
		for j, token := range tokens {
			values[j], err = strconv.ParseFloat(token, 64)
			if err != nil {
				return nil, errors.Errorf("invalid point %d field %s: %s", i, token, err)
			}
		}
		pc.Append(readSliceToPoint(values))
	}
	return pc, nil
}

func readPCDBinary(in *bufio.Reader, header pcdHeader) (*PointCloud, error) {
	pc := newForDeclaredSize(header.points)
	buf := make([]byte, 4*len(header.fields))
	values := make([]float64, len(header.fields))
	for i := 0; i < header.points; i++ {
		if _, err := io.ReadFull(in, buf); err != nil {
			return nil, errors.Wrapf(err, "error reading point %d", i)
		}
		for j := range header.fields {
			raw := binary.LittleEndian.Uint32(buf[4*j:])
			if j == 3 {
				values[j] = float64(raw)
				continue
			}
			values[j] = float64(math.Float32frombits(raw))
		}
		pc.Append(readSliceToPoint(values))
	}
	return pc, nil
}

func readPCDCompressed(in *bufio.Reader, header pcdHeader) (*PointCloud, error) {
	sizes := make([]byte, 8)
	if _, err := io.ReadFull(in, sizes); err != nil {
		return nil, errors.Wrap(err, "error reading compressed pcd sizes")
	}
	compressedSize := int(binary.LittleEndian.Uint32(sizes))
	rawSize := int(binary.LittleEndian.Uint32(sizes[4:]))
	numFields := len(header.fields)
	if rawSize != 4*numFields*header.points {
		return nil, errors.Errorf("compressed pcd holds %d bytes, expected %d for %d points",
			rawSize, 4*numFields*header.points, header.points)
	}

	pc := newForDeclaredSize(header.points)
	if rawSize == 0 {
		return pc, nil
	}
	if compressedSize > lzfBound(rawSize) {
		return nil, errors.Errorf("compressed pcd data of %d bytes is too large for %d uncompressed bytes",
			compressedSize, rawSize)
	}
	compressed := make([]byte, compressedSize)
	if _, err := io.ReadFull(in, compressed); err != nil {
		return nil, errors.Wrap(err, "error reading compressed pcd data")
	}
	raw := make([]byte, rawSize)
	n, err := lzf.Decompress(compressed, raw)
	if err != nil {
		return nil, errors.Wrap(err, "cannot decompress pcd data")
	}
	if n != rawSize {
		return nil, errors.Errorf("decompressed %d bytes of pcd data, expected %d", n, rawSize)
	}

	values := make([]float64, numFields)
	for i := 0; i < header.points; i++ {
		for j := range header.fields {
			v := binary.LittleEndian.Uint32(raw[4*(j*header.points+i):])
			if j == 3 {
				values[j] = float64(v)
				continue
			}
			values[j] = float64(math.Float32frombits(v))
		}
		pc.Append(readSliceToPoint(values))
	}
	return pc, nil
}

func readSliceToPoint(slice []float64) Point {
	p := Point{Position: NewVector(slice[0], slice[1], slice[2])}
	if len(slice) > 3 {
		p.Color = pcdIntToColor(int(slice[3]))
	}
	return p
}
