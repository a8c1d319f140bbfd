package engine

import (
	"math"

	"go.uber.org/zap"

	"github.com/lixenwraith/pfx/effect"
	"github.com/lixenwraith/pfx/gpu"
	"github.com/lixenwraith/pfx/particle"
	"github.com/lixenwraith/pfx/vmath"
)

// UpdateAll advances the runtime one frame; a no-op unless alive
func (r *ComponentRuntime) UpdateAll(dt float32) {
	if !r.alive || (r.state != StateAlive && r.state != StatePreRunning) {
		return
	}
	r.frame++
	r.dt = dt
	r.chaos = vmath.ChaosKeyFor(r.seed, uint32(r.frame), 0)
	r.chaosV = vmath.NewChaosKeyV(r.chaos.Next())
	r.container.ResetSpawned()

	r.commitInstances()
	r.AddRemoveParticles()
	r.AgeUpdate()
	r.UpdateParticles()
	r.CalculateBounds()
	if r.emitter.system.Config().StabilityCheck {
		r.DebugStabilityCheck()
	}
	r.UpdateGPURuntime()
	r.updateLiveness()
}

// AddInstances queues instances; they join the table at the start of the next update
func (r *ComponentRuntime) AddInstances(insts []particle.Instance) {
	r.pending = append(r.pending, insts...)
}

// commitInstances moves queued instances into the table and runs instance initializers
func (r *ComponentRuntime) commitInstances() {
	if len(r.pending) == 0 {
		return
	}
	first := r.instances.Add(r.pending...)
	last := r.instances.Len()
	r.pending = r.pending[:0]
	for _, f := range r.comp.InstanceInitializers() {
		f.InitInstances(r, first, last)
	}
}

// RemoveAllSubInstances drops every instance, letting existing particles live out their lives
func (r *ComponentRuntime) RemoveAllSubInstances() {
	r.gpuFrame.RemovedInstances += r.instances.Len()
	r.instances.Clear()
	r.pending = r.pending[:0]
}

// AddRemoveParticles removes dead particles, fixes up children, then spawns this frame's particles
func (r *ComponentRuntime) AddRemoveParticles() {
	if r.gpu == nil {
		r.removeDead()
	}

	for i, inst := range r.instances.Instances() {
		if inst.StartDelay > 0 {
			r.instances.SetStartDelay(i, max(0, inst.StartDelay-r.dt))
		}
	}

	entries := r.spawnScratch[:0]
	for _, s := range r.comp.Spawners() {
		entries = s.Spawn(r, entries)
	}
	if r.instances.Len() > 0 {
		entries = append(entries, r.emitQueue...)
	}
	r.emitQueue = r.emitQueue[:0]
	r.spawnScratch = entries[:0]
	if len(entries) > 0 {
		r.AddParticles(entries)
	}
}

func (r *ComponentRuntime) removeDead() {
	dead := r.container.CollectDead(r.removeScratch[:0])
	r.removeScratch = dead[:0]
	if len(dead) == 0 {
		return
	}
	swap := r.container.RemoveParticles(dead, r.swapScratch)
	r.swapScratch = swap
	r.stats.Removed += int64(len(dead))
	for _, h := range r.children {
		if child := r.emitter.Runtime(h); child != nil && child.state != StateUninitialized {
			child.ReparentParticles(swap)
		}
	}
}

// ReparentParticles applies a parent compaction mapping to instances and particle parent ids
// Particles of removed parents keep InvalidID; instances of removed parents are dropped
func (r *ComponentRuntime) ReparentParticles(swapIDs []particle.ID) {
	if len(swapIDs) == 0 {
		return
	}
	dropped := r.instances.Reparent(swapIDs)
	r.gpuFrame.RemovedInstances += dropped

	w := 0
	for _, inst := range r.pending {
		if int(inst.ParentID) < len(swapIDs) {
			inst.ParentID = swapIDs[inst.ParentID]
			if inst.ParentID == particle.InvalidID {
				continue
			}
		}
		r.pending[w] = inst
		w++
	}
	r.pending = r.pending[:w]

	if r.gpu != nil || !r.container.Has(particle.ParentID) {
		return
	}
	parents := r.container.IDs(particle.ParentID)
	for i, p := range parents {
		if int(p) < len(swapIDs) {
			parents[i] = swapIDs[p]
		}
	}
}

// EmitParticle queues one particle for instance 0 on the next spawn pass
func (r *ComponentRuntime) EmitParticle() {
	r.emitQueue = append(r.emitQueue, particle.SpawnEntry{Instance: 0, Count: 1})
}

// AddParticles appends particles for the given entries and initializes them
// Children triggered on spawn receive one instance per new particle
func (r *ComponentRuntime) AddParticles(entries []particle.SpawnEntry) particle.Range {
	n := r.instances.Len()
	total := 0
	for i := range entries {
		e := &entries[i]
		particle.Precondition(int(e.Instance) < n, "ComponentRuntime.AddParticles", "instance %d out of %d", e.Instance, n)
		e.ParentID = r.instances.ParentID(int(e.Instance))
		total += int(e.Count)
	}
	if total == 0 {
		return particle.NewRange(r.container.Count(), r.container.Count())
	}
	r.stats.Spawned += int64(total)

	if r.gpu != nil {
		r.queueGPUSpawns(entries)
		return particle.NewRange(0, 0)
	}

	rng := r.container.AddParticles(entries)
	for _, f := range r.comp.Initializers() {
		f.InitParticles(r, rng)
	}
	r.triggerChildren(rng)
	return rng
}

func (r *ComponentRuntime) queueGPUSpawns(entries []particle.SpawnEntry) {
	var loc [1]vmath.QuatTS
	for _, e := range entries {
		r.EmitLocations(loc[:], int(e.Instance))
		r.gpuFrame.Spawns = append(r.gpuFrame.Spawns, gpu.Spawn{Count: int(e.Count), Location: loc[0], Delay: e.Delay})
	}
}

func (r *ComponentRuntime) triggerChildren(rng particle.Range) {
	if rng.Empty() {
		return
	}
	for _, h := range r.children {
		child := r.emitter.Runtime(h)
		if child == nil || !child.comp.IsEnabled() {
			continue
		}
		cp := child.comp.Params()
		if cp.Trigger != effect.TriggerOnSpawn {
			continue
		}
		insts := make([]particle.Instance, 0, rng.Size())
		for id := rng.Start; id < rng.End; id++ {
			insts = append(insts, particle.Instance{ParentID: id, StartDelay: cp.TriggerDelay})
		}
		child.AddInstances(insts)
		if !child.alive && child.state != StateUninitialized {
			child.SetAlive()
		}
	}
}

// AgeUpdate advances normalized age; particles reaching 1 are removed on the next spawn pass
func (r *ComponentRuntime) AgeUpdate() {
	if r.gpu != nil {
		return
	}
	c := r.container
	age := c.Float(particle.NormalAge)
	inv := c.Float(particle.InvLifetime)
	for i := range age {
		if inv[i] == 0 {
			continue
		}
		age[i] += r.dt * inv[i]
		if age[i] >= 1 {
			c.MarkDead(particle.ID(i))
		}
	}
}

// UpdateParticles runs update features in declared order over the full range
func (r *ComponentRuntime) UpdateParticles() {
	if r.gpu != nil || r.container.Count() == 0 {
		return
	}
	full := r.container.FullRange()
	for _, u := range r.comp.Updaters() {
		u.UpdateParticles(r, full, r.dt)
	}
}

// CalculateBounds recomputes the box from positions padded by size, or mirrors the delegate
func (r *ComponentRuntime) CalculateBounds() {
	if r.gpu != nil {
		r.bounds = r.gpu.Bounds()
		return
	}
	b := vmath.EmptyAABB()
	c := r.container
	if c.Count() > 0 && c.Has(particle.Position) {
		pos := c.Vec3(particle.Position)
		var size []float32
		if c.Has(particle.Size) {
			size = c.Float(particle.Size)
		}
		for i, p := range pos {
			if !vmath.IsFinite(p) {
				continue
			}
			rad := float32(0)
			if size != nil && isFinite32(size[i]) {
				rad = size[i]
			}
			b.AddSphere(p, rad)
		}
	}
	r.bounds = b
}

// DebugStabilityCheck flags particles with non-finite state for removal
func (r *ComponentRuntime) DebugStabilityCheck() {
	if r.gpu != nil || r.container.Count() == 0 {
		return
	}
	c := r.container
	bad := 0
	check := func(i int) {
		if !c.IsDead(particle.ID(i)) {
			c.MarkDead(particle.ID(i))
			bad++
		}
	}
	for _, t := range []particle.DataType{particle.Position, particle.Velocity} {
		if !c.Has(t) {
			continue
		}
		for i, v := range c.Vec3(t) {
			if !vmath.IsFinite(v) {
				check(i)
			}
		}
	}
	for _, t := range []particle.DataType{particle.Size, particle.NormalAge} {
		if !c.Has(t) {
			continue
		}
		for i, v := range c.Float(t) {
			if !isFinite32(v) {
				check(i)
			}
		}
	}
	if bad > 0 {
		r.stats.Unstable += int64(bad)
		r.log.Warn("unstable particles removed", zap.Int("count", bad), zap.Uint64("frame", r.frame))
	}
}

// UpdateGPURuntime pushes this frame's deltas to the delegate without waiting
func (r *ComponentRuntime) UpdateGPURuntime() {
	if r.gpu == nil {
		return
	}
	frame := r.gpuFrame
	frame.Instances = r.instances.Len()
	frame.DeltaTime = r.dt
	r.gpu.UpdateFrame(frame)
	r.gpuFrame = gpu.FrameData{}
	r.syncGPURemoved()
}

// syncGPURemoved mirrors the delegate's removals into the runtime counters
func (r *ComponentRuntime) syncGPURemoved() {
	if rem := r.gpu.Removed(); rem > r.gpuRemoved {
		r.stats.Removed += rem - r.gpuRemoved
		r.gpuRemoved = rem
	}
}

func (r *ComponentRuntime) updateLiveness() {
	if !r.comp.IsEnabled() {
		r.Clear()
		return
	}
	if r.instances.Len() > 0 || len(r.pending) > 0 || r.HasParticles() {
		return
	}
	if p := r.ParentRuntime(); p != nil && p.alive {
		return
	}
	r.alive = false
	r.state = StateInitialized
}

// EmitLocations fills locs with the transforms of instances [firstInstance, firstInstance+len(locs))
// Child instances emit from their parent particle, root instances from the emitter
func (r *ComponentRuntime) EmitLocations(locs []vmath.QuatTS, firstInstance int) {
	view := r.ParentContainer()
	for i := range locs {
		inst := r.instances.At(firstInstance + i)
		locs[i] = r.locationOf(view, inst.ParentID)
	}
}

// SpawnLocation is the emit transform of one particle, through its parent id
func (r *ComponentRuntime) SpawnLocation(id particle.ID) vmath.QuatTS {
	if !r.IsChild() || !r.container.Has(particle.ParentID) {
		return r.emitter.Location()
	}
	return r.locationOf(r.ParentContainer(), r.container.IDs(particle.ParentID)[id])
}

func (r *ComponentRuntime) locationOf(view particle.View, parent particle.ID) vmath.QuatTS {
	if !r.IsChild() || !view.Valid() || int(parent) >= view.Count() {
		return r.emitter.Location()
	}
	return vmath.QuatTS{Q: view.Orientation(parent), T: view.Position(parent), S: 1}
}

// MaxParticleCounts estimates live and per-frame peaks, scaled by the parent's peak for children
func (r *ComponentRuntime) MaxParticleCounts(minFPS, maxFPS float32) (total, perFrame int) {
	p := r.comp.Params()
	total, perFrame = effect.EstimateMaxCounts(p.Counts, p.MaxParticleLife, minFPS, maxFPS)
	if parent := r.ParentRuntime(); parent != nil {
		pt, _ := parent.MaxParticleCounts(minFPS, maxFPS)
		total *= pt
		perFrame *= pt
	}
	return total, perFrame
}

func isFinite32(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
