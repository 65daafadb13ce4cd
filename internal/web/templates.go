package web

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Video Frame Studio</title>
<style>
  body { font-family: sans-serif; max-width: 880px; margin: 2rem auto; padding: 0 1rem; color: #222; }
  h1 { font-size: 1.5rem; }
  .panel { border: 1px solid #ddd; border-radius: 6px; padding: 1rem; margin-bottom: 1rem; }
  progress { width: 100%; height: 1.2rem; }
  video { width: 100%; margin-top: 0.5rem; }
  #status { color: #555; margin: 0.5rem 0; }
  button { padding: 0.4rem 1rem; }
</style>
</head>
<body>
<h1>Video Frame Studio</h1>

<div class="panel">
  <form id="uploadForm">
    <p><input type="file" name="file" accept="video/*" required> (max {{.MaxUploadSize}})</p>
    <p>
      Filter:
      <select name="filter">
        {{range .Filters}}<option value="{{.}}">{{.}}</option>{{end}}
      </select>
    </p>
    <button type="submit">Process Video</button>
    <button type="button" id="cancelBtn" disabled>Cancel</button>
  </form>
</div>

<div class="panel">
  <p id="status">Upload a video and click "Process Video".</p>
  <progress id="bar" value="0" max="1"></progress>
  <video id="player" controls hidden></video>
</div>

<script>
const form = document.getElementById('uploadForm');
const bar = document.getElementById('bar');
const status = document.getElementById('status');
const player = document.getElementById('player');
const cancelBtn = document.getElementById('cancelBtn');
let jobId = null;
let poller = null;

form.addEventListener('submit', async (e) => {
  e.preventDefault();
  status.textContent = 'Uploading...';
  bar.value = 0;
  player.hidden = true;
  const resp = await fetch('/upload', { method: 'POST', body: new FormData(form) });
  const body = await resp.json();
  if (!resp.ok) {
    status.textContent = 'Error: ' + body.error;
    return;
  }
  jobId = body.id;
  cancelBtn.disabled = false;
  status.textContent = 'Processing...';
  poller = setInterval(poll, 500);
});

cancelBtn.addEventListener('click', () => {
  if (jobId) fetch('/api/jobs/' + jobId + '/cancel', { method: 'POST' });
});

async function poll() {
  const resp = await fetch('/api/jobs/' + jobId);
  if (!resp.ok) return;
  const job = await resp.json();
  bar.value = job.progress;
  if (job.status === 'completed') {
    stopPolling();
    status.textContent = 'Processing complete.';
    player.src = '/videos/' + encodeURIComponent(job.output_name);
    player.hidden = false;
  } else if (job.status === 'failed') {
    stopPolling();
    status.textContent = 'Processing failed: ' + (job.error || 'unknown error');
  } else if (job.status === 'cancelled') {
    stopPolling();
    status.textContent = 'Processing cancelled.';
  }
}

function stopPolling() {
  clearInterval(poller);
  poller = null;
  cancelBtn.disabled = true;
}
</script>
</body>
</html>
`
