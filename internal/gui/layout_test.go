package gui

import (
	"testing"

	"fyne.io/fyne/v2"
	"github.com/stretchr/testify/assert"

	"folio/pkg/spread"
	"folio/pkg/zoom"
)

var testLayout = bookLayout{aspect: 1.5, gutter: 20, padding: 30}

func TestPageSizeLimitedByHeight(t *testing.T) {
	// 1000x660 leaves 940x600: a single page is 400 wide at aspect 1.5
	got := testLayout.pageSize(fyne.NewSize(1000, 660), spread.Single)
	assert.Equal(t, fyne.NewSize(400, 600), got)
}

func TestPageSizeLimitedByWidth(t *testing.T) {
	// two pages share 940-20 = 920 units
	got := testLayout.pageSize(fyne.NewSize(1000, 1500), spread.Double)
	assert.Equal(t, fyne.NewSize(460, 690), got)
}

func TestPageSizeUnmeasured(t *testing.T) {
	assert.Equal(t, fyne.Size{}, testLayout.pageSize(fyne.Size{}, spread.Double))
	assert.Equal(t, fyne.Size{}, testLayout.pageSize(fyne.NewSize(40, 40), spread.Single))
}

func TestPlaceSpreadIsCentred(t *testing.T) {
	pos, page, content := testLayout.place(fyne.NewSize(1000, 660), spread.Double, 2)
	assert.Equal(t, fyne.NewSize(400, 600), page)
	assert.Equal(t, fyne.NewSize(820, 600), content)
	assert.Equal(t, []fyne.Position{fyne.NewPos(90, 30), fyne.NewPos(510, 30)}, pos)

	// the cover alone keeps the page box and sits in the middle
	pos, _, content = testLayout.place(fyne.NewSize(1000, 660), spread.Double, 1)
	assert.Equal(t, fyne.NewSize(400, 600), content)
	assert.Equal(t, []fyne.Position{fyne.NewPos(300, 30)}, pos)
}

func TestProject(t *testing.T) {
	view := fyne.NewSize(1000, 600)
	pos, size := project(fyne.NewPos(300, 0), fyne.NewSize(400, 600), view, zoom.Identity(), 0)
	assert.Equal(t, fyne.NewPos(300, 0), pos)
	assert.Equal(t, fyne.NewSize(400, 600), size)

	zoomed := zoom.Transform{Scale: 2, Translation: zoom.Point{X: 10, Y: -20}}
	pos, size = project(fyne.NewPos(300, 0), fyne.NewSize(400, 600), view, zoomed, 5)
	assert.Equal(t, fyne.NewPos(500+10+(300-500)*2+5, 300-20+(0-300)*2), pos)
	assert.Equal(t, fyne.NewSize(800, 1200), size)
}
