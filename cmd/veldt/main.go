// Command veldt runs the unit simulation sandbox: a terminal view of a
// flocking crowd with rally orders, optional websocket observers and an
// optional arrival sound cue.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"reflect"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/profile"

	"github.com/veldtgame/veldt/audio"
	"github.com/veldtgame/veldt/component"
	"github.com/veldtgame/veldt/core"
	"github.com/veldtgame/veldt/engine"
	"github.com/veldtgame/veldt/event"
	"github.com/veldtgame/veldt/logger"
	"github.com/veldtgame/veldt/network"
	"github.com/veldtgame/veldt/parameter"
	"github.com/veldtgame/veldt/registry"
	"github.com/veldtgame/veldt/system"
)

var (
	reflectPosition = reflect.TypeOf(component.PositionComponent{})
	reflectMovement = reflect.TypeOf(component.MovementComponent{})
	reflectCollider = reflect.TypeOf(component.ColliderComponent{})
)

const (
	tickRate    = 16 * time.Millisecond // ~60 FPS
	snapshotHz  = 10
	worldWidth  = 120.0
	worldHeight = 80.0
)

type Game struct {
	screen tcell.Screen
	world  *engine.World
	grid   *engine.SpatialGrid
	events *event.Queue
	hub    *network.Hub
	player *audio.Player

	units []core.Entity
	tick  int64
}

func registerDefinitions() {
	registry.RegisterCategories([]registry.CategoryDef{
		{ID: "infantry", Name: "Infantry"},
		{ID: "air", Name: "Air"},
	})
	registry.RegisterUnits([]registry.UnitDef{
		{ID: "grunt", Name: "Grunt", Speed: 3, Radius: 0.5, Sight: 8, Behavior: registry.BehaviorAggressive, Category: "infantry"},
		{ID: "scout", Name: "Scout", Speed: 6, Radius: 0.4, Sight: 12, Flying: true, Category: "air"},
	})
}

func newGame(unitCount int, headless bool) (*Game, error) {
	cfg := parameter.LoadCollisionConfig(flagConfig)

	world := engine.NewWorld()
	grid := engine.NewSpatialGrid(worldWidth, worldHeight, engine.DefaultCellSize)
	events := event.NewQueue()

	movement := system.NewMovementSystem(grid, cfg)
	movement.AttachEvents(events)
	world.AddSystem(movement)

	g := &Game{
		world:  world,
		grid:   grid,
		events: events,
		units:  make([]core.Entity, 0, unitCount),
	}

	if !headless {
		screen, err := tcell.NewScreen()
		if err != nil {
			return nil, err
		}
		if err := screen.Init(); err != nil {
			return nil, err
		}
		g.screen = screen
	}

	g.buildTerrain()
	g.spawnUnits(unitCount)
	return g, nil
}

// buildTerrain blocks a few rectangular regions so avoidance has
// something to push against.
func (g *Game) buildTerrain() {
	blocks := [][4]float32{
		{40, 20, 48, 36},
		{70, 44, 84, 52},
		{20, 56, 28, 68},
	}
	for _, b := range blocks {
		for x := b[0]; x < b[2]; x += g.grid.CellSize() {
			for y := b[1]; y < b[3]; y += g.grid.CellSize() {
				g.grid.SetWalkable(x, y, false)
			}
		}
	}
}

func (g *Game) spawnUnits(count int) {
	defIDs := []string{"grunt", "grunt", "grunt", "scout"}
	for i := 0; i < count; i++ {
		defID := defIDs[rand.Intn(len(defIDs))]
		def, _ := registry.Unit(defID)

		var x, y float32
		for {
			x = rand.Float32() * worldWidth
			y = rand.Float32() * worldHeight
			if g.grid.IsWalkable(x, y) {
				break
			}
		}

		layer := core.LayerGround
		if def.Flying {
			layer = core.LayerFlying
		}

		e := g.world.CreateEntity()
		g.world.AddComponent(e, component.PositionComponent{X: x, Y: y})
		g.world.AddComponent(e, component.VelocityComponent{})
		g.world.AddComponent(e, component.ColliderComponent{Radius: def.Radius, Layer: layer})
		g.world.AddComponent(e, component.MovementComponent{State: core.StateIdle, MaxSpeed: def.Speed})
		g.world.AddComponent(e, component.UnitComponent{DefID: def.ID, Owner: uint8(i % 2)})
		g.world.AddComponent(e, component.SelectableComponent{})
		g.grid.Insert(e, x, y)
		g.units = append(g.units, e)
	}
}

// rally orders every unit to a point around the given position with a
// little scatter so the crowd does not collapse onto one spot.
func (g *Game) rally(x, y float32) {
	for _, e := range g.units {
		c, ok := g.world.GetComponent(e, reflectMovement)
		if !ok {
			continue
		}
		m := c.(component.MovementComponent)
		m.State = core.StateMoving
		m.TargetX = x + (rand.Float32()-0.5)*6
		m.TargetY = y + (rand.Float32()-0.5)*6
		m.StuckTicks = 0
		g.world.AddComponent(e, m)
	}
}

func (g *Game) randomRally() {
	for {
		x := rand.Float32() * worldWidth
		y := rand.Float32() * worldHeight
		if g.grid.IsWalkable(x, y) {
			g.rally(x, y)
			return
		}
	}
}

func (g *Game) step() {
	g.tick++
	g.world.Update(tickRate)

	for _, ev := range g.events.Consume() {
		if ev.Type == event.UnitArrived && g.player != nil {
			g.player.Arrival()
		}
	}

	if g.hub != nil && g.tick%(60/snapshotHz) == 0 {
		snap := network.BuildSnapshot(g.world, g.tick)
		if payload, err := snap.Encode(); err == nil {
			g.hub.Broadcast(payload)
		}
	}
}

func (g *Game) draw() {
	g.screen.Clear()
	sw, sh := g.screen.Size()
	scaleX := float32(sw) / worldWidth
	scaleY := float32(sh) / worldHeight

	// terrain
	wallStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for sy := 0; sy < sh; sy++ {
		for sx := 0; sx < sw; sx++ {
			wx := (float32(sx) + 0.5) / scaleX
			wy := (float32(sy) + 0.5) / scaleY
			if !g.grid.IsWalkable(wx, wy) {
				g.screen.SetContent(sx, sy, '#', nil, wallStyle)
			}
		}
	}

	for _, e := range g.units {
		pc, ok := g.world.GetComponent(e, reflectPosition)
		if !ok {
			continue
		}
		mc, _ := g.world.GetComponent(e, reflectMovement)
		cc, _ := g.world.GetComponent(e, reflectCollider)
		p := pc.(component.PositionComponent)
		m := mc.(component.MovementComponent)
		c := cc.(component.ColliderComponent)

		ch := 'o'
		style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
		switch {
		case c.Layer == core.LayerFlying:
			ch = '^'
			style = style.Foreground(tcell.ColorAqua)
		case m.State == core.StateMoving:
			ch = '>'
			style = style.Foreground(tcell.ColorYellow)
		case m.State == core.StateArriving:
			ch = '*'
			style = style.Foreground(tcell.ColorGreen)
		}
		g.screen.SetContent(int(p.X*scaleX), int(p.Y*scaleY), ch, nil, style)
	}

	status := fmt.Sprintf(" units:%d tick:%d  r:rally q:quit ", len(g.units), g.tick)
	statusStyle := tcell.StyleDefault.Reverse(true)
	for i, r := range status {
		if i >= sw {
			break
		}
		g.screen.SetContent(i, sh-1, r, nil, statusStyle)
	}
	g.screen.Show()
}

func (g *Game) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Rune() == 'q':
			return false
		case ev.Rune() == 'r':
			g.randomRally()
		}
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 != 0 {
			sw, sh := g.screen.Size()
			mx, my := ev.Position()
			g.rally(float32(mx)/float32(sw)*worldWidth, float32(my)/float32(sh)*worldHeight)
		}
	case *tcell.EventResize:
		g.screen.Sync()
	}
	return true
}

func (g *Game) run() {
	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()

	if g.screen == nil {
		// headless: periodic rally keeps the crowd moving for observers
		rallyEvery := time.NewTicker(10 * time.Second)
		defer rallyEvery.Stop()
		g.randomRally()
		for {
			select {
			case <-ticker.C:
				g.step()
			case <-rallyEvery.C:
				g.randomRally()
			}
		}
	}

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- g.screen.PollEvent()
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !g.handleInput(ev) {
				return
			}
		case <-ticker.C:
			g.step()
			g.draw()
		}
	}
}

func (g *Game) cleanup() {
	if g.player != nil {
		g.player.Close()
	}
	if g.screen != nil {
		g.screen.Fini()
	}
}

var flagConfig string

func main() {
	var (
		unitCount   = flag.Int("units", 200, "number of units to spawn")
		serveAddr   = flag.String("serve", "", "address for websocket observers, e.g. :8080")
		headless    = flag.Bool("headless", false, "run without the terminal view")
		sound       = flag.Bool("sound", false, "play arrival cues")
		profileMode = flag.Bool("profile", false, "write a CPU profile")
	)
	flag.StringVar(&flagConfig, "config", "", "collision config JSON path")
	flag.Parse()

	logger.Init()

	if *profileMode {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	registerDefinitions()

	game, err := newGame(*unitCount, *headless)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer game.cleanup()

	if *sound {
		game.player = audio.NewPlayer()
	}

	if *serveAddr != "" {
		game.hub = network.NewHub()
		mux := http.NewServeMux()
		mux.Handle("/observe", game.hub)
		go func() {
			logger.Log.WithField("addr", *serveAddr).Info("observer server listening")
			if err := http.ListenAndServe(*serveAddr, mux); err != nil {
				logger.Log.WithError(err).Error("observer server failed")
			}
		}()
	}

	game.run()
}
