package gui

import (
	"image/color"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFadingChrome returns chrome whose fades only advance when ticked.
func newFadingChrome(t *testing.T) *chrome {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)
	c := newChrome(200 * time.Millisecond)
	c.animate = func(*fyne.Animation) {}
	return c
}

func barOpacity(c *chrome) uint8 {
	return c.headerBar.FillColor.(color.NRGBA).A
}

func TestChromeFadesOut(t *testing.T) {
	c := newFadingChrome(t)

	c.apply(chromeState{uiVisible: false})
	require.NotNil(t, c.fade)
	assert.True(t, c.header.Visible(), "controls stay while fading")

	c.fade.Tick(0.5)
	assert.Less(t, barOpacity(c), uint8(barAlpha))
	assert.Greater(t, barOpacity(c), uint8(0))
	assert.True(t, c.footer.Visible())

	c.fade.Tick(1)
	assert.False(t, c.header.Visible())
	assert.False(t, c.footer.Visible())
	assert.False(t, c.headerBar.Visible())
}

func TestChromeFadesIn(t *testing.T) {
	c := newFadingChrome(t)
	c.apply(chromeState{uiVisible: false})
	c.fade.Tick(1)
	require.False(t, c.header.Visible())

	c.apply(chromeState{uiVisible: true})
	assert.True(t, c.header.Visible(), "controls return as the fade starts")
	assert.True(t, c.footerBar.Visible())
	assert.Zero(t, barOpacity(c))

	c.fade.Tick(1)
	assert.Equal(t, uint8(barAlpha), barOpacity(c))
}

func TestChromeFadeInterrupted(t *testing.T) {
	c := newFadingChrome(t)

	c.apply(chromeState{uiVisible: false})
	out := c.fade
	out.Tick(0.5)
	c.apply(chromeState{uiVisible: true})

	out.Tick(1)
	assert.True(t, c.header.Visible(), "a superseded fade out has no effect")
}

func TestChromeWithoutFadeTime(t *testing.T) {
	a := test.NewApp()
	t.Cleanup(a.Quit)
	c := newChrome(0)

	c.apply(chromeState{uiVisible: false})
	assert.False(t, c.header.Visible())
	assert.Nil(t, c.fade)
	c.apply(chromeState{uiVisible: true})
	assert.True(t, c.header.Visible())
	assert.Equal(t, uint8(barAlpha), barOpacity(c))
}
