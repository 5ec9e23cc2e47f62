package web

// indexPage is the whole spectator UI: an 8x8 grid fed by the websocket
// summary stream. Kept inline so the binary stays a single file on the Pi.
const indexPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Squire</title>
<style>
  body { font-family: monospace; background: #1e1e1e; color: #ddd; margin: 2em; }
  #board { display: grid; grid-template-columns: repeat(8, 2.2em); }
  .sq { width: 2.2em; height: 2.2em; line-height: 2.2em; text-align: center; }
  .light { background: #4a4a4a; }
  .dark { background: #2e2e2e; }
  .sel { background: #2255cc; }
  .dest { background: #22aa44; }
  .cap { background: #cc3322; }
  .mis { background: #cc3322; animation: blink 1s step-start infinite; }
  @keyframes blink { 50% { background: #2e2e2e; } }
  #msg { margin-top: 1em; color: #e6c545; }
</style>
</head>
<body>
<h2>Squire</h2>
<div id="turn"></div>
<div id="board"></div>
<div id="msg"></div>
<script>
const board = document.getElementById('board');
const cells = {};
for (let rank = 7; rank >= 0; rank--) {
  for (let file = 0; file < 8; file++) {
    const d = document.createElement('div');
    d.className = 'sq ' + ((file + rank) % 2 ? 'light' : 'dark');
    d.dataset.base = d.className;
    cells[file + ',' + rank] = d;
    board.appendChild(d);
  }
}
function mark(list, cls) {
  (list || []).forEach(p => {
    const d = cells[p.File + ',' + p.Rank];
    if (d) d.className = d.dataset.base + ' ' + cls;
  });
}
function render(s) {
  Object.values(cells).forEach(d => { d.className = d.dataset.base; });
  mark(s.destinations, 'dest');
  mark(s.captures, 'cap');
  mark(s.mismatches, 'mis');
  if (s.selected) mark([s.selected], 'sel');
  document.getElementById('turn').textContent =
    s.game_over ? s.result : (s.variant + ' — ' + s.turn + ' to move');
  document.getElementById('msg').textContent = s.message || '';
}
function connect() {
  const ws = new WebSocket('ws://' + location.host + '/ws');
  ws.onmessage = e => render(JSON.parse(e.data));
  ws.onclose = () => setTimeout(connect, 2000);
}
connect();
</script>
</body>
</html>
`
