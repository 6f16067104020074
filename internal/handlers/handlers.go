// Package handlers implements the normative handler catalogue (spec §4.5),
// registering one dispatch.HandlerFunc per message id against a
// dispatch.Dispatcher. Grounded on the teacher's room.go/client.go message
// switch, restructured per spec §4.2 into the generic registry dispatch
// package already provides.
package handlers

import (
	"context"
	"log/slog"
	"time"

	"ringhub/server/internal/admin"
	"ringhub/server/internal/codec"
	"ringhub/server/internal/dispatch"
	"ringhub/server/internal/lobby"
	"ringhub/server/internal/scheduler"
)

// Targets resolves a session id to a live sender, for fan-out beyond the
// single Sender a handler is invoked with (room broadcasts, admin actions
// against a third party). Implemented by the session registry (package
// session), kept as an interface here so handlers stays transport-agnostic.
type Targets interface {
	Get(sessionID string) (dispatch.Sender, bool)
	Close(sessionID, reason string)
}

// Principals resolves a session id to its admin principal. Sessions that
// never authenticated as admin report RoleUser, which Authorize rejects.
type Principals interface {
	PrincipalFor(sessionID string) admin.Principal
}

// Deps bundles everything a handler needs. It is intentionally a flat
// struct rather than an interface: handlers are internal to this package
// and call concrete Lobby/Scheduler/Registry methods directly.
type Deps struct {
	Lobby      *lobby.Lobby
	Scheduler  *scheduler.Scheduler
	Admin      *admin.Registry
	Targets    Targets
	Principals Principals
	Log        *slog.Logger
}

func (d *Deps) log() *slog.Logger {
	if d.Log == nil {
		return slog.Default()
	}
	return d.Log
}

// broadcastAdapter satisfies lobby.BroadcastTarget on top of Targets.
type broadcastAdapter struct{ t Targets }

func (b broadcastAdapter) SendReliable(sessionID, msgID string, body []byte) error {
	s, ok := b.t.Get(sessionID)
	if !ok {
		return nil
	}
	return s.SendReliable(msgID, body)
}

func (b broadcastAdapter) SendDatagram(sessionID, msgID string, body []byte) error {
	s, ok := b.t.Get(sessionID)
	if !ok {
		return nil
	}
	return s.SendDatagram(msgID, body)
}

func (d *Deps) broadcast() lobby.BroadcastTarget { return broadcastAdapter{d.Targets} }

func roomInfoOf(r *lobby.Room) codec.RoomInfo {
	return codec.RoomInfo{
		ID: r.ID, Name: r.Name, Max: r.Max, Count: uint32(r.Count()),
		Private: r.Private, State: r.CurrentState().String(), OwnerID: r.CreatorID,
	}
}

// RegisterAll binds every normative handler id (spec §4.5) into d.
func RegisterAll(d *dispatch.Dispatcher, deps *Deps) {
	registerRoomLifecycle(d, deps)
	registerReadinessAndGame(d, deps)
	registerMovementAndActions(d, deps)
	registerChat(d, deps)
	registerLiveness(d, deps)
	registerVoice(d, deps)
	registerAdmin(d, deps)
}

// Disconnect tears down a player that dropped off the transport without
// sending LeaveRoomRequest first (connection loss, kick, ban). It mirrors
// the LeaveRoomRequest handler's broadcast so remaining room members always
// see a PlayerLeftRoom notice, however the player left.
func Disconnect(deps *Deps, sessionID string) {
	roomID := deps.Lobby.RemovePlayer(sessionID)
	if roomID == "" {
		return
	}
	notice := codec.PlayerLeftRoom{RoomID: roomID, PlayerID: sessionID}
	deps.Lobby.BroadcastToRoom(deps.broadcast(), roomID, sessionID, codec.IDPlayerLeftRoom, notice.Encode(), false)
}

// --- room lifecycle --------------------------------------------------

func registerRoomLifecycle(d *dispatch.Dispatcher, deps *Deps) {
	dispatch.Register(d, codec.IDCreateRoomRequest, codec.DecodeCreateRoomRequest,
		func(_ context.Context, s dispatch.Sender, body codec.CreateRoomRequest) error {
			max := body.Max
			if max == 0 {
				max = 16
			}
			r := deps.Lobby.CreateRoom(lobby.CreateRoomParams{
				Name: body.Name, Max: max, Private: body.Private,
				PasswordHash: body.PasswordHash, CreatorID: s.SessionID(),
			})
			// The creator becomes the room's first member.
			deps.Lobby.JoinRoom(s.SessionID(), r.ID, body.PasswordHash)
			resp := codec.CreateRoomResponse{OK: true, RoomID: r.ID}
			return s.SendReliable(codec.IDCreateRoomResponse, resp.Encode())
		})

	dispatch.Register(d, codec.IDJoinRoomRequest, codec.DecodeJoinRoomRequest,
		func(_ context.Context, s dispatch.Sender, body codec.JoinRoomRequest) error {
			res := deps.Lobby.JoinRoom(s.SessionID(), body.RoomID, body.PasswordHash)
			if res != lobby.JoinOK {
				resp := codec.JoinRoomResponse{OK: false, Error: joinResultError(res)}
				return s.SendReliable(codec.IDJoinRoomResponse, resp.Encode())
			}
			r, _ := deps.Lobby.GetRoom(body.RoomID)
			resp := codec.JoinRoomResponse{OK: true, RoomInfo: roomInfoOf(r)}
			if err := s.SendReliable(codec.IDJoinRoomResponse, resp.Encode()); err != nil {
				return err
			}
			notice := codec.PlayerJoinedRoom{RoomID: r.ID, PlayerID: s.SessionID(), Name: body.Name}
			deps.Lobby.BroadcastToRoom(deps.broadcast(), r.ID, s.SessionID(), codec.IDPlayerJoinedRoom, notice.Encode(), false)
			return nil
		})

	dispatch.Register(d, codec.IDLeaveRoomRequest, codec.DecodeLeaveRoomRequest,
		func(_ context.Context, s dispatch.Sender, body codec.LeaveRoomRequest) error {
			ok := deps.Lobby.LeaveRoom(s.SessionID(), body.RoomID)
			resp := codec.LeaveRoomResponse{OK: ok}
			if !ok {
				resp.Error = "not a member"
			}
			if err := s.SendReliable(codec.IDLeaveRoomResponse, resp.Encode()); err != nil {
				return err
			}
			if ok {
				notice := codec.PlayerLeftRoom{RoomID: body.RoomID, PlayerID: s.SessionID()}
				deps.Lobby.BroadcastToRoom(deps.broadcast(), body.RoomID, s.SessionID(), codec.IDPlayerLeftRoom, notice.Encode(), false)
			}
			return nil
		})

	dispatch.Register(d, codec.IDGetRoomListRequest, codec.DecodeGetRoomListRequest,
		func(_ context.Context, s dispatch.Sender, _ codec.GetRoomListRequest) error {
			var infos []codec.RoomInfo
			for _, r := range deps.Lobby.ListRooms() {
				if r.IsPublicJoinable() {
					infos = append(infos, roomInfoOf(r))
				}
			}
			resp := codec.GetRoomListResponse{Rooms: infos}
			return s.SendReliable(codec.IDGetRoomListResponse, resp.Encode())
		})
}

func joinResultError(res lobby.JoinResult) string {
	switch res {
	case lobby.JoinFull:
		return "room full"
	case lobby.JoinNotFound:
		return "room not found"
	case lobby.JoinWrongPassword:
		return "wrong password"
	case lobby.JoinAlreadyInRoom:
		return "already in room"
	case lobby.JoinNotJoinable:
		return "room not joinable"
	default:
		return "join failed"
	}
}

// --- readiness / game lifecycle ---------------------------------------

func registerReadinessAndGame(d *dispatch.Dispatcher, deps *Deps) {
	dispatch.Register(d, codec.IDPlayerReadyRequest, codec.DecodePlayerReadyRequest,
		func(_ context.Context, s dispatch.Sender, body codec.PlayerReadyRequest) error {
			p, ok := deps.Lobby.GetPlayer(s.SessionID())
			if !ok {
				return nil
			}
			p.SetReady(body.Ready)
			roomID := p.RoomID()
			if roomID == "" {
				return nil
			}
			notice := codec.PlayerReadyBroadcast{PlayerID: s.SessionID(), Ready: body.Ready}
			deps.Lobby.BroadcastToRoom(deps.broadcast(), roomID, "", codec.IDPlayerReadyBroadcast, notice.Encode(), false)
			return nil
		})

	dispatch.Register(d, codec.IDStartGameRequest, codec.DecodeStartGameRequest,
		func(_ context.Context, s dispatch.Sender, body codec.StartGameRequest) error {
			r, ok := deps.Lobby.GetRoom(body.RoomID)
			if !ok {
				return nil
			}
			if !r.TryStart(deps.Lobby.AllReady) {
				return nil
			}
			notice := codec.GameStartedBroadcast{RoomID: r.ID}
			deps.Lobby.BroadcastToRoom(deps.broadcast(), r.ID, "", codec.IDGameStartedBroadcast, notice.Encode(), false)
			r.MarkInProgress()
			return nil
		})
}

// --- movement / actions (datagram) -------------------------------------

func registerMovementAndActions(d *dispatch.Dispatcher, deps *Deps) {
	dispatch.Register(d, codec.IDPlayerPositionUpdate, codec.DecodePlayerPositionUpdate,
		func(_ context.Context, s dispatch.Sender, body codec.PlayerPositionUpdate) error {
			p, ok := deps.Lobby.GetPlayer(s.SessionID())
			if !ok {
				return nil
			}
			if !p.UpdateMotion(body.Seq, body.Position, body.Rotation, body.Velocity) {
				return nil // stale datagram, silently dropped per spec §8
			}
			roomID := p.RoomID()
			if roomID == "" {
				return nil
			}
			notice := codec.PlayerPositionBroadcast{
				PlayerID: s.SessionID(), Position: body.Position, Rotation: body.Rotation, Velocity: body.Velocity,
			}
			deps.Lobby.BroadcastToRoom(deps.broadcast(), roomID, s.SessionID(), codec.IDPlayerPositionBroadcast, notice.Encode(), true)
			return nil
		})

	dispatch.Register(d, codec.IDPlayerAction, codec.DecodePlayerAction,
		func(_ context.Context, s dispatch.Sender, body codec.PlayerAction) error {
			p, ok := deps.Lobby.GetPlayer(s.SessionID())
			if !ok {
				return nil
			}
			p.ApplyAction(body.ActionType)
			roomID := p.RoomID()
			if roomID == "" {
				return nil
			}
			notice := codec.PlayerActionBroadcast{PlayerID: s.SessionID(), ActionType: body.ActionType, TargetID: body.TargetID}
			deps.Lobby.BroadcastToRoom(deps.broadcast(), roomID, s.SessionID(), codec.IDPlayerActionBroadcast, notice.Encode(), false)
			return nil
		})
}

// --- chat ----------------------------------------------------------------

func registerChat(d *dispatch.Dispatcher, deps *Deps) {
	dispatch.Register(d, codec.IDChatMessage, codec.DecodeChatMessage,
		func(_ context.Context, s dispatch.Sender, body codec.ChatMessage) error {
			p, ok := deps.Lobby.GetPlayer(s.SessionID())
			if !ok {
				return nil
			}
			roomID := p.RoomID()
			if roomID == "" {
				return nil
			}
			notice := codec.ChatMessageBroadcast{PlayerID: s.SessionID(), Message: body.Message, Timestamp: time.Now().Unix()}
			deps.Lobby.BroadcastToRoom(deps.broadcast(), roomID, "", codec.IDChatMessageBroadcast, notice.Encode(), false)

			if deps.Scheduler != nil {
				enrichChatLinkPreview(deps, roomID, body.Message)
			}
			return nil
		})
}

// --- liveness --------------------------------------------------------------

func registerLiveness(d *dispatch.Dispatcher, deps *Deps) {
	dispatch.Register(d, codec.IDPingRequest, codec.DecodePingRequest,
		func(_ context.Context, s dispatch.Sender, body codec.PingRequest) error {
			resp := codec.PongResponse{ClientTS: body.ClientTS, ServerTS: time.Now().UnixMilli()}
			return s.SendReliable(codec.IDPongResponse, resp.Encode())
		})

	dispatch.Register(d, codec.IDHeartbeat, codec.DecodeHeartbeat,
		func(_ context.Context, _ dispatch.Sender, _ codec.Heartbeat) error { return nil })
}

// --- voice ------------------------------------------------------------

func registerVoice(d *dispatch.Dispatcher, deps *Deps) {
	dispatch.Register(d, codec.IDVoiceStateUpdate, codec.DecodeVoiceStateUpdate,
		func(_ context.Context, s dispatch.Sender, body codec.VoiceStateUpdate) error {
			p, ok := deps.Lobby.GetPlayer(s.SessionID())
			if !ok {
				return nil
			}
			v := p.VoiceSnapshot()
			v.Muted = body.Muted
			v.Deafened = body.Deafened
			p.SetVoice(v)
			return nil
		})

	dispatch.Register(d, codec.IDPushToTalkState, codec.DecodePushToTalkState,
		func(_ context.Context, s dispatch.Sender, body codec.PushToTalkState) error {
			p, ok := deps.Lobby.GetPlayer(s.SessionID())
			if !ok {
				return nil
			}
			v := p.VoiceSnapshot()
			v.PTTActive = body.Active
			p.SetVoice(v)
			return nil
		})

	dispatch.Register(d, codec.IDVoiceSettingsUpdate, codec.DecodeVoiceSettingsUpdate,
		func(_ context.Context, s dispatch.Sender, body codec.VoiceSettingsUpdate) error {
			p, ok := deps.Lobby.GetPlayer(s.SessionID())
			if !ok {
				return nil
			}
			v := p.VoiceSnapshot()
			v.ActivationMode = body.ActivationMode
			v.VolumeIn = body.VolumeIn
			v.VolumeOut = body.VolumeOut
			p.SetVoice(v)
			return nil
		})

	dispatch.Register(d, codec.IDVoiceQualityMetrics, codec.DecodeVoiceQualityMetrics,
		func(_ context.Context, s dispatch.Sender, body codec.VoiceQualityMetrics) error {
			deps.log().Debug("voice quality", "session", s.SessionID(), "loss", body.PacketLoss, "jitter_ms", body.JitterMs)
			return nil
		})

	dispatch.Register(d, codec.IDAudioDeviceRequest, codec.DecodeAudioDeviceRequest,
		func(_ context.Context, s dispatch.Sender, body codec.AudioDeviceRequest) error {
			deps.log().Info("audio device selected", "session", s.SessionID(), "device", body.DeviceName)
			return nil
		})

	// AudioPacket arrives over the datagram channel and is relayed with a
	// positional gain computed from sender/listener room positions (spec
	// §4.3). The payload itself is opaque; each relayed copy carries the
	// listener's computed gain in its Gain field, and listeners whose gain
	// is 0 (at or beyond max_dist) are skipped entirely.
	dispatch.Register(d, codec.IDAudioPacket, codec.DecodeAudioPacket,
		func(_ context.Context, s dispatch.Sender, body codec.AudioPacket) error {
			relayAudioPacket(deps, s, body)
			return nil
		})
}

func relayAudioPacket(deps *Deps, s dispatch.Sender, body codec.AudioPacket) {
	speaker, ok := deps.Lobby.GetPlayer(s.SessionID())
	if !ok {
		return
	}
	roomID := speaker.RoomID()
	if roomID == "" {
		return
	}
	r, ok := deps.Lobby.GetRoom(roomID)
	if !ok {
		return
	}
	if !speaker.VoiceSnapshot().CanSpeak() {
		return
	}
	minDist, maxDist := r.DistanceSettings()
	speakerPos := speaker.Snapshot().Position

	for _, memberID := range r.Members() {
		if memberID == s.SessionID() {
			continue
		}
		listener, ok := deps.Lobby.GetPlayer(memberID)
		if !ok {
			continue
		}
		gain := lobby.PositionalGain(speakerPos, listener.Snapshot().Position, minDist, maxDist)
		if gain <= 0 {
			continue
		}
		sender, ok := deps.Targets.Get(memberID)
		if !ok {
			continue
		}
		relayed := body
		relayed.Gain = float32(gain)
		_ = sender.SendDatagram(codec.IDAudioPacket, relayed.Encode())
	}
}

func enrichChatLinkPreview(deps *Deps, roomID, message string) {
	deps.Scheduler.Immediate(func() {
		fetchAndBroadcastLinkPreview(deps, roomID, message)
	})
}

// --- admin --------------------------------------------------------------

func registerAdmin(d *dispatch.Dispatcher, deps *Deps) {
	dispatch.Register(d, codec.IDKickPlayer, codec.DecodeKickPlayer,
		func(_ context.Context, s dispatch.Sender, body codec.KickPlayer) error {
			actor := deps.Principals.PrincipalFor(s.SessionID())
			if err := admin.Authorize(actor); err != nil {
				return replyAdminError(s, err)
			}
			if err := deps.Admin.Audit(context.Background(), actor, "kick", body.PlayerID, body.Reason); err != nil {
				deps.log().Error("audit write failed", "action", "kick", "err", err)
			}
			deps.Targets.Close(body.PlayerID, body.Reason)
			return s.SendReliable(codec.IDAdminResponse, codec.AdminResponse{OK: true}.Encode())
		})

	dispatch.Register(d, codec.IDBanPlayer, codec.DecodeBanPlayer,
		func(ctx context.Context, s dispatch.Sender, body codec.BanPlayer) error {
			actor := deps.Principals.PrincipalFor(s.SessionID())
			var until *time.Time
			if body.DurationSeconds > 0 {
				t := time.Now().Add(time.Duration(body.DurationSeconds) * time.Second)
				until = &t
			}
			// Ban by the target's durable client key, not its session id
			// (spec §3 "Ban record ... used by session accept"): the session
			// id is minted fresh per connection, so banning it would never
			// stop a reconnect. A target with no recorded client key (never
			// connected, already gone) falls back to PlayerID so the admin
			// command still records something actionable.
			banKey := body.PlayerID
			if target := deps.Principals.PrincipalFor(body.PlayerID); target.ClientKey != "" {
				banKey = target.ClientKey
			}
			if err := deps.Admin.Ban(ctx, actor, banKey, body.Reason, until); err != nil {
				return replyAdminError(s, err)
			}
			deps.Targets.Close(body.PlayerID, "banned: "+body.Reason)
			return s.SendReliable(codec.IDAdminResponse, codec.AdminResponse{OK: true}.Encode())
		})

	dispatch.Register(d, codec.IDUnbanPlayer, codec.DecodeUnbanPlayer,
		func(ctx context.Context, s dispatch.Sender, body codec.UnbanPlayer) error {
			// Unlike KickPlayer, PlayerID here names the client key a ban was
			// recorded under (the target is normally long disconnected, so
			// there is no live session to resolve a key from).
			actor := deps.Principals.PrincipalFor(s.SessionID())
			if _, err := deps.Admin.Unban(ctx, actor, body.PlayerID); err != nil {
				return replyAdminError(s, err)
			}
			return s.SendReliable(codec.IDAdminResponse, codec.AdminResponse{OK: true}.Encode())
		})

	dispatch.Register(d, codec.IDMutePlayer, codec.DecodeMutePlayer,
		func(ctx context.Context, s dispatch.Sender, body codec.MutePlayer) error {
			actor := deps.Principals.PrincipalFor(s.SessionID())
			if err := admin.Authorize(actor); err != nil {
				return replyAdminError(s, err)
			}
			if p, ok := deps.Lobby.GetPlayer(body.PlayerID); ok {
				v := p.VoiceSnapshot()
				v.Muted = true
				p.SetVoice(v)
			}
			if err := deps.Admin.Audit(ctx, actor, "mute", body.PlayerID, ""); err != nil {
				deps.log().Error("audit write failed", "action", "mute", "err", err)
			}
			return s.SendReliable(codec.IDAdminResponse, codec.AdminResponse{OK: true}.Encode())
		})

	dispatch.Register(d, codec.IDUnmutePlayer, codec.DecodeUnmutePlayer,
		func(ctx context.Context, s dispatch.Sender, body codec.UnmutePlayer) error {
			actor := deps.Principals.PrincipalFor(s.SessionID())
			if err := admin.Authorize(actor); err != nil {
				return replyAdminError(s, err)
			}
			if p, ok := deps.Lobby.GetPlayer(body.PlayerID); ok {
				v := p.VoiceSnapshot()
				v.Muted = false
				p.SetVoice(v)
			}
			if err := deps.Admin.Audit(ctx, actor, "unmute", body.PlayerID, ""); err != nil {
				deps.log().Error("audit write failed", "action", "unmute", "err", err)
			}
			return s.SendReliable(codec.IDAdminResponse, codec.AdminResponse{OK: true}.Encode())
		})

	dispatch.Register(d, codec.IDServerBroadcast, codec.DecodeServerBroadcast,
		func(ctx context.Context, s dispatch.Sender, body codec.ServerBroadcast) error {
			actor := deps.Principals.PrincipalFor(s.SessionID())
			if err := admin.Authorize(actor); err != nil {
				return replyAdminError(s, err)
			}
			if err := deps.Admin.Audit(ctx, actor, "server_broadcast", "", body.Message); err != nil {
				deps.log().Error("audit write failed", "action", "server_broadcast", "err", err)
			}
			notice := codec.ServerBroadcast{Message: body.Message}
			for _, p := range deps.Lobby.ListPlayers() {
				if sender, ok := deps.Targets.Get(p.ID); ok {
					_ = sender.SendReliable(codec.IDServerBroadcast, notice.Encode())
				}
			}
			return s.SendReliable(codec.IDAdminResponse, codec.AdminResponse{OK: true}.Encode())
		})

	dispatch.Register(d, codec.IDCloseRoom, codec.DecodeCloseRoom,
		func(ctx context.Context, s dispatch.Sender, body codec.CloseRoom) error {
			actor := deps.Principals.PrincipalFor(s.SessionID())
			if err := admin.Authorize(actor); err != nil {
				return replyAdminError(s, err)
			}
			if err := deps.Admin.Audit(ctx, actor, "close_room", body.RoomID, ""); err != nil {
				deps.log().Error("audit write failed", "action", "close_room", "err", err)
			}
			if r, ok := deps.Lobby.GetRoom(body.RoomID); ok {
				r.Finish()
			}
			deps.Lobby.DestroyRoom(body.RoomID)
			return s.SendReliable(codec.IDAdminResponse, codec.AdminResponse{OK: true}.Encode())
		})
}

func replyAdminError(s dispatch.Sender, err error) error {
	resp := codec.AdminResponse{OK: false, ErrorKind: "Unauthorized", Message: err.Error()}
	return s.SendReliable(codec.IDAdminResponse, resp.Encode())
}
