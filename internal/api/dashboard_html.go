package api

const dashboardHTML = `<!DOCTYPE html>
<html lang="ru">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Малинка: аналитическая панель</title>
<style>
*,*::before,*::after{box-sizing:border-box;margin:0;padding:0}
:root,[data-theme="light"]{
  --bg:#f6f8fa;--bg-card:#ffffff;--bg-card-hover:#f3f4f6;--bg-input:#f0f1f3;
  --border:#d0d7de;--text:#1f2328;--text-muted:#656d76;--text-dim:#8b949e;
  --primary:#8a2be2;--primary-hover:#6f1fc0;
  --green:#00cc96;--red:#ef553b;--yellow:#d29922;
  --radius:8px;--radius-sm:4px;
}
[data-theme="dark"]{
  --bg:#0f1117;--bg-card:#161b22;--bg-card-hover:#1c2129;--bg-input:#0d1117;
  --border:#30363d;--text:#e1e4e8;--text-muted:#8b949e;--text-dim:#484f58;
  --primary:#b47cff;--primary-hover:#c99bff;
}
body{font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Helvetica,Arial,sans-serif;background:var(--bg);color:var(--text);line-height:1.5;min-height:100vh}
a{color:var(--primary);text-decoration:none}
button{cursor:pointer;font-family:inherit;font-size:inherit}

/* Layout */
.container{max-width:1400px;margin:0 auto;padding:0 24px 48px}

/* Navbar */
header{background:var(--bg-card);border-bottom:1px solid var(--border);padding:12px 24px;position:sticky;top:0;z-index:100}
.header-inner{max-width:1400px;margin:0 auto;display:flex;align-items:center;gap:16px;flex-wrap:wrap}
.header-title{font-size:20px;font-weight:700}
nav{display:flex;gap:4px;flex-wrap:wrap}
nav a{padding:6px 12px;border-radius:var(--radius-sm);color:var(--text-muted);font-size:14px}
nav a:hover{background:var(--bg-card-hover);color:var(--text)}
nav a.active{background:var(--primary);color:#fff}
.header-actions{margin-left:auto;display:flex;gap:8px;align-items:center}
.btn{background:var(--bg-input);color:var(--text);border:1px solid var(--border);border-radius:var(--radius-sm);padding:6px 12px;font-size:13px}
.btn:hover{border-color:var(--primary)}
.btn-primary{background:var(--primary);border-color:var(--primary);color:#fff}
.btn-primary:hover{background:var(--primary-hover)}

/* Page head */
.page-head{margin:24px 0 8px}
.page-head h1{font-size:26px}
.page-head p{color:var(--text-muted)}
.summary-line{font-size:13px;color:var(--text-muted);margin-top:4px}
.banner{margin:12px 0;padding:10px 14px;border-radius:var(--radius-sm);border:1px solid var(--yellow);color:var(--yellow);font-size:14px}
.banner.error{border-color:var(--red);color:var(--red)}
.notice{font-size:13px;color:var(--text-muted);margin-top:16px}

/* KPI cards */
.section-title{font-size:18px;font-weight:600;margin:24px 0 8px}
.cards{display:grid;grid-template-columns:repeat(auto-fit,minmax(180px,1fr));gap:16px;margin:8px 0 16px}
.card{background:var(--bg-card);border:1px solid var(--border);border-radius:var(--radius);padding:16px}
.card-label{font-size:13px;color:var(--text-muted);margin-bottom:4px}
.card-value{font-size:26px;font-weight:700;line-height:1.2}
.card-delta{font-size:12px;margin-top:4px}
.card-delta.success{color:var(--green)}.card-delta.danger{color:var(--red)}.card-delta.muted{color:var(--text-dim)}

/* Charts */
.charts{display:grid;grid-template-columns:repeat(auto-fit,minmax(520px,1fr));gap:16px}
.chart{background:var(--bg-card);border:1px solid var(--border);border-radius:var(--radius);padding:16px;min-height:360px;display:flex;flex-direction:column}
.chart-head{display:flex;align-items:flex-start;gap:8px}
.chart-title{font-weight:600}
.chart-sub{font-size:12px;color:var(--text-muted)}
.chart-head a{margin-left:auto;font-size:12px}
.chart svg{width:100%;flex:1}
.chart-empty{flex:1;display:flex;align-items:center;justify-content:center;color:var(--text-muted);text-align:center;padding:24px}
.legend{display:flex;flex-wrap:wrap;gap:10px;font-size:12px;color:var(--text-muted);margin-top:6px}
.legend i{display:inline-block;width:10px;height:10px;border-radius:2px;margin-right:4px;vertical-align:middle}
svg text{fill:var(--text-muted);font-size:11px}

/* Tables */
.table-wrap{background:var(--bg-card);border:1px solid var(--border);border-radius:var(--radius);overflow-x:auto;margin-top:16px}
.table-wrap h3{font-size:15px;padding:12px 16px 0}
table{width:100%;border-collapse:collapse;font-size:13px;margin-top:8px}
th,td{padding:8px 16px;text-align:left;border-bottom:1px solid var(--border)}
th{color:var(--text-muted);font-weight:600}

/* Filter modal */
.modal-backdrop{position:fixed;inset:0;background:rgba(0,0,0,.5);display:none;align-items:flex-start;justify-content:center;z-index:200;overflow-y:auto}
.modal-backdrop.open{display:flex}
.modal{background:var(--bg-card);border:1px solid var(--border);border-radius:var(--radius);margin:60px 16px;width:100%;max-width:640px}
.modal-head{padding:16px 20px;border-bottom:1px solid var(--border);font-weight:600;display:flex}
.modal-head button{margin-left:auto;background:none;border:none;color:var(--text-muted);font-size:18px}
.modal-body{padding:16px 20px;display:flex;flex-direction:column;gap:14px}
.modal-body label{font-size:13px;color:var(--text-muted);display:block;margin-bottom:4px}
.modal-body input,.modal-body select{width:100%;background:var(--bg-input);color:var(--text);border:1px solid var(--border);border-radius:var(--radius-sm);padding:6px 8px}
.modal-body select[multiple]{min-height:90px}
.dates{display:flex;gap:8px}
.modal-foot{padding:12px 20px;border-top:1px solid var(--border);display:flex;gap:8px;justify-content:flex-end}
.info p{color:var(--text-muted);font-size:14px}

.toast{position:fixed;bottom:20px;right:20px;background:var(--bg-card);border:1px solid var(--border);border-radius:var(--radius-sm);padding:10px 16px;display:none;z-index:300}
.toast.show{display:block}
.toast.error{border-color:var(--red);color:var(--red)}
.loading{color:var(--text-muted);padding:40px 0;text-align:center}
@media(max-width:700px){.charts{grid-template-columns:1fr}}
</style>
</head>
<body>
<header>
  <div class="header-inner">
    <div class="header-title">📈 Малинка</div>
    <nav id="nav"></nav>
    <div class="header-actions">
      <button class="btn" id="filter-btn">⚙️ Фильтры</button>
      <a class="btn" id="export-btn" href="#">⬇️ XLSX</a>
      <button class="btn" id="theme-btn" title="Тема">🌓</button>
    </div>
  </div>
</header>

<div class="container">
  <div class="page-head">
    <h1 id="page-title">Загрузка…</h1>
    <p id="page-subtitle"></p>
    <div class="summary-line" id="page-summary"></div>
  </div>
  <div id="banners"></div>
  <div id="content"><div class="loading">Загрузка данных…</div></div>
</div>

<div class="modal-backdrop" id="filter-modal">
  <div class="modal">
    <div class="modal-head">Фильтры<button id="filter-close">✕</button></div>
    <div class="modal-body" id="filter-body"></div>
    <div class="modal-foot">
      <button class="btn" id="filter-reset">Сбросить</button>
      <button class="btn btn-primary" id="filter-apply">Применить</button>
    </div>
  </div>
</div>

<div class="toast" id="toast"></div>

<script>
(function() {
  'use strict';

  var PALETTE = ['#FF6B6B','#4ECDC4','#45B7D1','#96CEB4','#FFEAA7','#DDA0DD','#98D8C8','#F7DC6F','#BB8FCE','#85C1E9'];
  var SVGNS = 'http://www.w3.org/2000/svg';

  var state = {tab: null, nav: [], options: null, query: '', timer: null};

  // --- Helpers ---
  function $(id) { return document.getElementById(id); }

  function esc(s) {
    var d = document.createElement('div');
    d.textContent = s == null ? '' : String(s);
    return d.innerHTML;
  }

  function apiFetch(path) {
    return fetch(path, {headers: {'Accept': 'application/json'}}).then(function(resp) {
      return resp.json().then(function(body) {
        if (!resp.ok) throw new Error(body.error || resp.statusText);
        return body;
      });
    });
  }

  function toast(message, type) {
    var t = $('toast');
    t.textContent = message;
    t.className = 'toast show' + (type ? ' ' + type : '');
    setTimeout(function() { t.className = 'toast'; }, 4000);
  }

  function formatValue(v, format) {
    if (v == null || isNaN(v)) return '0';
    var n = Math.abs(v) >= 100 ? Math.round(v).toLocaleString('en-US') : (Math.round(v * 100) / 100).toString();
    switch (format) {
      case 'currency': return n + ' ₽';
      case 'percent': return n + '%';
      case 'hours': return n + ' ч';
      default: return n;
    }
  }

  function shortLabel(s, max) {
    s = String(s);
    return s.length > max ? s.slice(0, max - 1) + '…' : s;
  }

  // --- Routing ---
  function slugFromPath() {
    var p = location.pathname.replace(/^\/+|\/+$/g, '');
    for (var i = 0; i < state.nav.length; i++) {
      if (state.nav[i].slug === p) return p;
    }
    return 'overview';
  }

  function renderNav() {
    $('nav').innerHTML = state.nav.map(function(item) {
      return '<a href="' + item.path + '" data-slug="' + item.slug + '"' +
        (item.slug === state.tab ? ' class="active"' : '') + '>' + esc(item.label) + '</a>';
    }).join('');
    Array.prototype.forEach.call($('nav').querySelectorAll('a'), function(a) {
      a.addEventListener('click', function(e) {
        e.preventDefault();
        history.pushState(null, '', a.getAttribute('href'));
        openTab(a.getAttribute('data-slug'));
      });
    });
  }

  function openTab(slug) {
    state.tab = slug;
    state.query = '';
    renderNav();
    apiFetch('/api/tabs/' + slug + '/options').then(function(opts) {
      state.options = opts;
      state.query = defaultQuery(opts);
      buildFilters(opts);
      return loadPage();
    }).catch(function(err) { toast(err.message, 'error'); });
  }

  // --- Filters ---
  function defaultQuery(opts) {
    var q = new URLSearchParams();
    if (opts.start) q.set('start', opts.start);
    if (opts.end) q.set('end', opts.end);
    return q.toString();
  }

  function buildFilters(opts) {
    var body = $('filter-body');
    if (!opts.filterable) {
      body.innerHTML = '<div class="info">' + (opts.message || []).map(function(m) {
        return '<p>' + esc(m) + '</p>';
      }).join('') + '</div>';
      $('filter-apply').style.display = 'none';
      $('filter-reset').style.display = 'none';
      return;
    }
    $('filter-apply').style.display = '';
    $('filter-reset').style.display = '';
    var html = '<div><label>' + esc(opts.date_label || 'Период:') + '</label><div class="dates">' +
      '<input type="date" id="f-start" value="' + esc(opts.start || '') + '">' +
      '<input type="date" id="f-end" value="' + esc(opts.end || '') + '"></div></div>';
    (opts.fields || []).forEach(function(f) {
      html += '<div><label>' + esc(f.label) + '</label><select multiple data-dim="' + esc(f.dim) + '">' +
        (f.values || []).map(function(v) { return '<option value="' + esc(v) + '">' + esc(v) + '</option>'; }).join('') +
        '</select></div>';
    });
    body.innerHTML = html;
  }

  function readFilters() {
    var q = new URLSearchParams();
    var start = $('f-start'), end = $('f-end');
    if (start && start.value) q.set('start', start.value);
    if (end && end.value) q.set('end', end.value);
    Array.prototype.forEach.call($('filter-body').querySelectorAll('select[data-dim]'), function(sel) {
      Array.prototype.forEach.call(sel.selectedOptions, function(o) { q.append(sel.getAttribute('data-dim'), o.value); });
    });
    return q.toString();
  }

  $('filter-btn').addEventListener('click', function() { $('filter-modal').classList.add('open'); });
  $('filter-close').addEventListener('click', function() { $('filter-modal').classList.remove('open'); });
  $('filter-apply').addEventListener('click', function() {
    state.query = readFilters();
    $('filter-modal').classList.remove('open');
    loadPage();
  });
  $('filter-reset').addEventListener('click', function() {
    buildFilters(state.options);
    state.query = defaultQuery(state.options);
    loadPage();
  });

  // --- Page ---
  function pageURL(suffix) {
    return '/api/tabs/' + state.tab + (suffix || '') + (state.query ? '?' + state.query : '');
  }

  function loadPage() {
    clearInterval(state.timer);
    $('export-btn').setAttribute('href', pageURL('/export.xlsx'));
    return apiFetch(pageURL()).then(function(page) {
      renderPage(page);
      if (page.refresh_seconds > 0) {
        state.timer = setInterval(function() {
          apiFetch(pageURL()).then(renderPage).catch(function(err) { toast(err.message, 'error'); });
        }, page.refresh_seconds * 1000);
      }
    }).catch(function(err) { toast(err.message, 'error'); });
  }

  function renderPage(page) {
    document.title = page.title + ' · Малинка';
    $('page-title').textContent = page.title;
    $('page-subtitle').textContent = page.subtitle;
    $('page-summary').textContent = page.filter_summary || '';

    var banners = '';
    if (page.error) banners += '<div class="banner error">' + esc(page.error) + '</div>';
    if (page.fallback) banners += '<div class="banner">Показаны демонстрационные данные: источник недоступен.</div>';
    $('banners').innerHTML = banners;

    var html = '';
    (page.sections || []).forEach(function(s) {
      if (s.title) html += '<div class="section-title">' + esc(s.title) + '</div>';
      html += '<div class="cards">' + s.cards.map(function(c) {
        return '<div class="card"><div class="card-label">' + esc(c.title) + '</div>' +
          '<div class="card-value">' + esc(c.value) + '</div>' +
          (c.delta ? '<div class="card-delta ' + esc(c.delta_color || 'success') + '">' + esc(c.delta) + '</div>' : '') +
          '</div>';
      }).join('') + '</div>';
    });
    html += '<div class="charts">' + (page.charts || []).map(function(c, i) {
      return '<div class="chart"><div class="chart-head"><div><div class="chart-title">' + esc(c.title) + '</div>' +
        (c.subtitle ? '<div class="chart-sub">' + esc(c.subtitle) + '</div>' : '') + '</div>' +
        '<a href="' + pageURL('/charts/' + c.id + '.png') + '" target="_blank">PNG</a></div>' +
        '<div id="chart-' + i + '" style="flex:1;display:flex;flex-direction:column"></div></div>';
    }).join('') + '</div>';
    (page.tables || []).forEach(function(t) {
      html += '<div class="table-wrap"><h3>' + esc(t.title) + '</h3>';
      if (!t.rows || !t.rows.length) {
        html += '<div class="chart-empty">Нет данных</div></div>';
        return;
      }
      html += '<table><thead><tr>' + t.columns.map(function(c) { return '<th>' + esc(c) + '</th>'; }).join('') +
        '</tr></thead><tbody>' + t.rows.map(function(r) {
          return '<tr>' + r.map(function(v) { return '<td>' + esc(v) + '</td>'; }).join('') + '</tr>';
        }).join('') + '</tbody></table></div>';
    });
    if (page.notice) html += '<div class="notice">' + esc(page.notice) + '</div>';
    $('content').innerHTML = html;

    (page.charts || []).forEach(function(c, i) { drawChart($('chart-' + i), c); });
  }

  // --- Charts ---
  function el(name, attrs, parent) {
    var e = document.createElementNS(SVGNS, name);
    for (var k in attrs) e.setAttribute(k, attrs[k]);
    if (parent) parent.appendChild(e);
    return e;
  }

  function text(parent, x, y, s, anchor) {
    var t = el('text', {x: x, y: y, 'text-anchor': anchor || 'middle'}, parent);
    t.textContent = s;
    return t;
  }

  function colorFor(cfg, series, si, point, pi) {
    if (cfg.color_map) {
      var key = point && (point.group || point.label);
      if (key && cfg.color_map[key]) return cfg.color_map[key];
      if (cfg.color_map[series.name]) return cfg.color_map[series.name];
    }
    if (series.color) return series.color;
    var pal = cfg.colors && cfg.colors.length ? cfg.colors : PALETTE;
    var multi = cfg.series.length > 1 || cfg.type === 'pie' || cfg.type === 'donut';
    return pal[(multi && cfg.series.length > 1 ? si : pi) % pal.length];
  }

  function isEmpty(cfg) {
    return !(cfg.series || []).some(function(s) { return s.data && s.data.length; });
  }

  function drawChart(box, cfg) {
    if (isEmpty(cfg)) {
      box.innerHTML = '<div class="chart-empty">' + esc(cfg.empty || 'Нет данных') + '</div>';
      return;
    }
    var W = 560, H = 300;
    var svg = el('svg', {viewBox: '0 0 ' + W + ' ' + H, preserveAspectRatio: 'xMidYMid meet'}, box);
    if (cfg.type === 'pie' || cfg.type === 'donut') {
      drawPie(svg, cfg, W, H);
    } else if (cfg.type === 'hbar') {
      drawHBar(svg, cfg, W, H);
    } else {
      drawXY(svg, cfg, W, H);
    }
    if (cfg.show_legend || cfg.series.length > 1 || cfg.type === 'pie' || cfg.type === 'donut') {
      drawLegend(box, cfg);
    }
  }

  function drawLegend(box, cfg) {
    var items = [];
    if (cfg.series.length > 1) {
      items = cfg.series.map(function(s, i) { return [s.name, colorFor(cfg, s, i, null, i)]; });
    } else {
      var s = cfg.series[0];
      items = s.data.map(function(p, i) { return [p.label, colorFor(cfg, s, 0, p, i)]; });
    }
    var div = document.createElement('div');
    div.className = 'legend';
    div.innerHTML = items.map(function(it) {
      return '<span><i style="background:' + esc(it[1]) + '"></i>' + esc(it[0]) + '</span>';
    }).join('');
    box.appendChild(div);
  }

  function drawPie(svg, cfg, W, H) {
    var s = cfg.series[0];
    var total = s.data.reduce(function(a, p) { return a + Math.max(p.value, 0); }, 0);
    if (total <= 0) return;
    var cx = W / 2, cy = H / 2, r = H / 2 - 20, inner = cfg.type === 'donut' ? r * 0.45 : 0;
    var angle = -Math.PI / 2;
    s.data.forEach(function(p, i) {
      var frac = Math.max(p.value, 0) / total;
      var a2 = angle + frac * Math.PI * 2;
      var large = frac > 0.5 ? 1 : 0;
      var x1 = cx + r * Math.cos(angle), y1 = cy + r * Math.sin(angle);
      var x2 = cx + r * Math.cos(a2), y2 = cy + r * Math.sin(a2);
      var d;
      if (frac >= 0.9999) {
        d = 'M' + (cx - r) + ',' + cy + 'a' + r + ',' + r + ' 0 1,0 ' + (2 * r) + ',0a' + r + ',' + r + ' 0 1,0 ' + (-2 * r) + ',0';
      } else {
        d = 'M' + cx + ',' + cy + 'L' + x1 + ',' + y1 + 'A' + r + ',' + r + ' 0 ' + large + ',1 ' + x2 + ',' + y2 + 'Z';
      }
      var path = el('path', {d: d, fill: colorFor(cfg, s, 0, p, i), stroke: 'var(--bg-card)'}, svg);
      el('title', {}, path).textContent = p.label + ': ' + formatValue(p.value, cfg.value_format) + ' (' + (frac * 100).toFixed(1) + '%)';
      if (frac > 0.05) {
        var mid = (angle + a2) / 2, lr = inner ? (r + inner) / 2 : r * 0.65;
        text(svg, cx + lr * Math.cos(mid), cy + lr * Math.sin(mid) + 4, (frac * 100).toFixed(1) + '%');
      }
      angle = a2;
    });
    if (inner) el('circle', {cx: cx, cy: cy, r: inner, fill: 'var(--bg-card)'}, svg);
  }

  function niceMax(v) {
    if (v <= 0) return 1;
    var p = Math.pow(10, Math.floor(Math.log10(v)));
    var m = v / p;
    return (m <= 1 ? 1 : m <= 2 ? 2 : m <= 5 ? 5 : 10) * p;
  }

  function drawXY(svg, cfg, W, H) {
    var L = 64, R = 12, T = 12, B = 48;
    var labels = cfg.series[0].data.map(function(p) { return p.label; });
    var stacked = cfg.type === 'stacked_bar';
    var max = 0, min = 0;
    labels.forEach(function(_, i) {
      var sum = 0;
      cfg.series.forEach(function(s) {
        var v = s.data[i] ? s.data[i].value : 0;
        if (stacked) sum += v; else { max = Math.max(max, v); min = Math.min(min, v); }
      });
      if (stacked) max = Math.max(max, sum);
    });
    max = niceMax(max);
    var y = function(v) { return T + (H - T - B) * (1 - (v - min) / (max - min)); };
    var pw = W - L - R, step = pw / Math.max(labels.length, 1);

    for (var g = 0; g <= 4; g++) {
      var gv = min + (max - min) * g / 4;
      if (cfg.show_grid) el('line', {x1: L, x2: W - R, y1: y(gv), y2: y(gv), stroke: 'var(--border)'}, svg);
      text(svg, L - 6, y(gv) + 4, formatValue(gv, cfg.value_format), 'end');
    }
    var every = Math.ceil(labels.length / 12);
    labels.forEach(function(l, i) {
      if (i % every === 0) text(svg, L + step * (i + 0.5), H - B + 16, shortLabel(l, 10));
    });
    if (cfg.x_label) text(svg, L + pw / 2, H - 6, cfg.x_label);

    if (cfg.type === 'line') {
      cfg.series.forEach(function(s, si) {
        var c = colorFor(cfg, s, si, null, si);
        var pts = s.data.map(function(p, i) { return (L + step * (i + 0.5)) + ',' + y(p.value); }).join(' ');
        el('polyline', {points: pts, fill: 'none', stroke: c, 'stroke-width': 2}, svg);
        s.data.forEach(function(p, i) {
          var dot = el('circle', {cx: L + step * (i + 0.5), cy: y(p.value), r: 3, fill: c}, svg);
          el('title', {}, dot).textContent = p.label + ': ' + formatValue(p.value, cfg.value_format);
        });
      });
      return;
    }

    var n = stacked ? 1 : cfg.series.length;
    var bw = step * 0.8 / n;
    var base = labels.map(function() { return 0; });
    cfg.series.forEach(function(s, si) {
      s.data.forEach(function(p, i) {
        var x = L + step * i + step * 0.1 + (stacked ? 0 : bw * si);
        var y0 = stacked ? base[i] : 0, y1 = y0 + p.value;
        var rect = el('rect', {x: x, y: y(Math.max(y0, y1)), width: bw, height: Math.abs(y(y0) - y(y1)),
          fill: colorFor(cfg, s, si, p, i), rx: 2}, svg);
        el('title', {}, rect).textContent = (cfg.series.length > 1 ? s.name + ', ' : '') + p.label + ': ' + formatValue(p.value, cfg.value_format);
        if (stacked) base[i] = y1;
      });
    });
  }

  function drawHBar(svg, cfg, W, H) {
    var s = cfg.series[0];
    var L = 140, R = 70, T = 8, B = 8;
    var max = niceMax(Math.max.apply(null, s.data.map(function(p) { return p.value; }).concat([0])));
    var step = (H - T - B) / s.data.length;
    s.data.forEach(function(p, i) {
      var w = (W - L - R) * Math.max(p.value, 0) / max;
      var yy = T + step * i;
      text(svg, L - 6, yy + step / 2 + 4, shortLabel(p.label, 20), 'end');
      var rect = el('rect', {x: L, y: yy + step * 0.15, width: w, height: step * 0.7, fill: colorFor(cfg, s, 0, p, i), rx: 2}, svg);
      el('title', {}, rect).textContent = p.label + ': ' + formatValue(p.value, cfg.value_format);
      text(svg, L + w + 4, yy + step / 2 + 4, formatValue(p.value, cfg.value_format), 'start');
    });
  }

  // --- Theme ---
  function applyTheme(theme) {
    document.documentElement.setAttribute('data-theme', theme);
    try { localStorage.setItem('malinka-theme', theme); } catch (e) {}
  }
  $('theme-btn').addEventListener('click', function() {
    applyTheme(document.documentElement.getAttribute('data-theme') === 'dark' ? 'light' : 'dark');
  });
  try { applyTheme(localStorage.getItem('malinka-theme') || 'light'); } catch (e) { applyTheme('light'); }

  // --- Boot ---
  window.addEventListener('popstate', function() { openTab(slugFromPath()); });
  apiFetch('/api/tabs').then(function(nav) {
    state.nav = nav;
    openTab(slugFromPath());
  }).catch(function(err) { toast(err.message, 'error'); });
})();
</script>
</body>
</html>`
