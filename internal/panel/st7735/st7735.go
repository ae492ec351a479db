// Package st7735 drives ST7735 class 16-bit colour TFT panels over SPI.
//
// The panel is write-only: every Draw converts the source image to RGB565
// and streams it into the controller RAM window covering the target area.
//
// # Wiring
//
// Connect SDA to SPI_MOSI, SCK to SPI_CLK, CS to SPI_CS. DC is mandatory;
// RESET may be nil when it is tied high.
package st7735

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const (
	swReset = 0x01
	slpIn   = 0x10
	slpOut  = 0x11
	norOn   = 0x13
	invOff  = 0x20
	dispOff = 0x28
	dispOn  = 0x29
	caSet   = 0x2A
	raSet   = 0x2B
	ramWr   = 0x2C
	madCtl  = 0x36
	colMod  = 0x3A
	frmCtr1 = 0xB1
	frmCtr2 = 0xB2
	frmCtr3 = 0xB3
	invCtr  = 0xB4
	pwCtr1  = 0xC0
	pwCtr2  = 0xC1
	pwCtr3  = 0xC2
	pwCtr4  = 0xC3
	pwCtr5  = 0xC4
	vmCtr1  = 0xC5
	gmCtrP1 = 0xE0
	gmCtrN1 = 0xE1
)

// MADCTL bits.
const (
	madMY  = 0x80
	madMX  = 0x40
	madMV  = 0x20
	madBGR = 0x08
)

// DefaultOpts matches the common 1.8" 128x160 "green tab" module in
// landscape orientation.
var DefaultOpts = Opts{
	W:        128,
	H:        160,
	Rotation: 1,
	ColStart: 2,
	RowStart: 1,
}

// Opts defines the options for the device.
type Opts struct {
	// W and H are the native (portrait) panel size.
	W int
	H int
	// Rotation is the number of quarter turns, 0 to 3. Odd values give a
	// landscape display.
	Rotation int
	// ColStart and RowStart are the RAM offsets of the visible area. They
	// depend on the module's glass and are given for rotation 0.
	ColStart int
	RowStart int
	// BGR swaps red and blue for panels wired that way.
	BGR bool
}

// Dev is an open handle to the display controller.
type Dev struct {
	c   conn.Conn
	dc  gpio.PinOut
	rst gpio.PinOut

	rect       image.Rectangle
	colOffset  int
	rowOffset  int
	madctl     byte
	maxTxBytes int

	// Reused between draws.
	buf []byte
}

// sleep is replaced in tests.
var sleep = time.Sleep

// NewSPI returns a Dev that communicates over SPI at 20 MHz, resets the
// panel and runs the initialisation sequence.
func NewSPI(p spi.Port, dc, rst gpio.PinOut, opts *Opts) (*Dev, error) {
	if dc == nil || dc == gpio.INVALID {
		return nil, fmt.Errorf("st7735: a dc pin is required")
	}
	if opts.Rotation < 0 || opts.Rotation > 3 {
		return nil, fmt.Errorf("st7735: invalid rotation %d", opts.Rotation)
	}
	if err := dc.Out(gpio.Low); err != nil {
		return nil, err
	}
	c, err := p.Connect(20*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("st7735: %w", err)
	}

	d := &Dev{
		c:          c,
		dc:         dc,
		rst:        rst,
		maxTxBytes: 4096,
	}
	if l, ok := c.(conn.Limits); ok {
		if n := l.MaxTxSize(); n > 0 {
			d.maxTxBytes = n
		}
	}
	d.orient(opts)

	if err := d.reset(); err != nil {
		return nil, err
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

// orient computes the visible rectangle, RAM offsets and MADCTL value for
// the requested rotation.
func (d *Dev) orient(opts *Opts) {
	var mad byte
	w, h := opts.W, opts.H
	col, row := opts.ColStart, opts.RowStart
	switch opts.Rotation {
	case 0:
		mad = madMX | madMY
	case 1:
		mad = madMY | madMV
		w, h = h, w
		col, row = row, col
	case 2:
		mad = 0
	case 3:
		mad = madMX | madMV
		w, h = h, w
		col, row = row, col
	}
	if opts.BGR {
		mad |= madBGR
	}
	d.madctl = mad
	d.rect = image.Rect(0, 0, w, h)
	d.colOffset = col
	d.rowOffset = row
}

func (d *Dev) reset() error {
	if d.rst == nil {
		return nil
	}
	for _, step := range []struct {
		l gpio.Level
		t time.Duration
	}{
		{gpio.High, 10 * time.Millisecond},
		{gpio.Low, 10 * time.Millisecond},
		{gpio.High, 120 * time.Millisecond},
	} {
		if err := d.rst.Out(step.l); err != nil {
			return fmt.Errorf("st7735: reset: %w", err)
		}
		sleep(step.t)
	}
	return nil
}

func (d *Dev) init() error {
	seq := []struct {
		cmd   byte
		data  []byte
		delay time.Duration
	}{
		{swReset, nil, 150 * time.Millisecond},
		{slpOut, nil, 255 * time.Millisecond},
		{frmCtr1, []byte{0x01, 0x2C, 0x2D}, 0},
		{frmCtr2, []byte{0x01, 0x2C, 0x2D}, 0},
		{frmCtr3, []byte{0x01, 0x2C, 0x2D, 0x01, 0x2C, 0x2D}, 0},
		{invCtr, []byte{0x07}, 0},
		{pwCtr1, []byte{0xA2, 0x02, 0x84}, 0},
		{pwCtr2, []byte{0xC5}, 0},
		{pwCtr3, []byte{0x0A, 0x00}, 0},
		{pwCtr4, []byte{0x8A, 0x2A}, 0},
		{pwCtr5, []byte{0x8A, 0xEE}, 0},
		{vmCtr1, []byte{0x0E}, 0},
		{invOff, nil, 0},
		{madCtl, []byte{d.madctl}, 0},
		{colMod, []byte{0x05}, 0},
		{gmCtrP1, []byte{0x02, 0x1c, 0x07, 0x12, 0x37, 0x32, 0x29, 0x2d, 0x29, 0x25, 0x2B, 0x39, 0x00, 0x01, 0x03, 0x10}, 0},
		{gmCtrN1, []byte{0x03, 0x1d, 0x07, 0x06, 0x2E, 0x2C, 0x29, 0x2D, 0x2E, 0x2E, 0x37, 0x3F, 0x00, 0x00, 0x02, 0x10}, 0},
		{norOn, nil, 10 * time.Millisecond},
		{dispOn, nil, 100 * time.Millisecond},
	}
	for _, s := range seq {
		if err := d.command(s.cmd, s.data...); err != nil {
			return err
		}
		if s.delay > 0 {
			sleep(s.delay)
		}
	}
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("st7735.Dev{%s, %s, %s}", d.c, d.dc, d.rect.Max)
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Draw implements display.Drawer.
//
// It draws synchronously, once this function returns, the display is updated.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	orig := r
	r = r.Intersect(d.rect)
	if r.Empty() {
		return nil
	}
	sp = sp.Add(r.Min.Sub(orig.Min))

	n := 2 * r.Dx() * r.Dy()
	if cap(d.buf) < n {
		d.buf = make([]byte, n)
	}
	buf := d.buf[:n]

	i := 0
	rgba, fast := src.(*image.RGBA)
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			var c color.RGBA
			if fast {
				c = rgba.RGBAAt(sp.X+x, sp.Y+y)
			} else {
				c = color.RGBAModel.Convert(src.At(sp.X+x, sp.Y+y)).(color.RGBA)
			}
			binary.BigEndian.PutUint16(buf[i:], rgb565(c))
			i += 2
		}
	}

	if err := d.setWindow(r); err != nil {
		return err
	}
	if err := d.command(ramWr); err != nil {
		return err
	}
	return d.data(buf)
}

// Halt implements conn.Resource. It turns the panel off and puts the
// controller to sleep.
func (d *Dev) Halt() error {
	if err := d.command(dispOff); err != nil {
		return err
	}
	return d.command(slpIn)
}

func (d *Dev) setWindow(r image.Rectangle) error {
	x0, x1 := uint16(r.Min.X+d.colOffset), uint16(r.Max.X-1+d.colOffset)
	y0, y1 := uint16(r.Min.Y+d.rowOffset), uint16(r.Max.Y-1+d.rowOffset)

	var b [4]byte
	binary.BigEndian.PutUint16(b[0:], x0)
	binary.BigEndian.PutUint16(b[2:], x1)
	if err := d.command(caSet, b[:]...); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(b[0:], y0)
	binary.BigEndian.PutUint16(b[2:], y1)
	return d.command(raSet, b[:]...)
}

func (d *Dev) command(cmd byte, args ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.c.Tx([]byte{cmd}, nil); err != nil {
		return fmt.Errorf("st7735: command 0x%02X: %w", cmd, err)
	}
	if len(args) == 0 {
		return nil
	}
	return d.data(args)
}

func (d *Dev) data(b []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	for len(b) > 0 {
		chunk := b
		if len(chunk) > d.maxTxBytes {
			chunk = chunk[:d.maxTxBytes]
		}
		if err := d.c.Tx(chunk, nil); err != nil {
			return fmt.Errorf("st7735: data: %w", err)
		}
		b = b[len(chunk):]
	}
	return nil
}

func rgb565(c color.RGBA) uint16 {
	return uint16(c.R&0xF8)<<8 | uint16(c.G&0xFC)<<3 | uint16(c.B)>>3
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
